package match

import (
	"fmt"

	"github.com/cfoust/broadside/pkg/grid"
)

const (
	WAITING_NOTICE = "Waiting for opponent...\n"
	LOBBY_FULL     = "Lobby is full."
	YOUR_GRID      = "\nYour grid:"
	INVALID_TARGET = "Your missile went to space!\n"
	HIT_NOTICE     = "Hit!\n"
	MISS_NOTICE    = "Missed.\n"
	VICTORY_NOTICE = "You won!\n"
	NAME_PROMPT    = "What is your name? "
)

func OpponentNotice(name string) string {
	return fmt.Sprintf("Your opponent is %s\n", name)
}

func CountdownNotice(count int) string {
	return fmt.Sprintf("Game starts in %d...\n", count)
}

func TurnPrompt(opponent string) string {
	return fmt.Sprintf("Your turn to shoot %s: ", opponent)
}

func TurnNotice(name string) string {
	return fmt.Sprintf("%s's turn.\n", name)
}

func RemainingNotice(opponent string, remaining int) string {
	return fmt.Sprintf("%s has %d ships remaining.\n", opponent, remaining)
}

func FiringNotice(name string, target grid.Coordinate) string {
	return fmt.Sprintf("%s is firing at %s\n", name, target)
}

func DefeatNotice(winner string) string {
	return fmt.Sprintf("%s won.\n", winner)
}
