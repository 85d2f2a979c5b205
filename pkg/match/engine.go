package match

import (
	"context"
	"errors"
	"time"

	"github.com/cfoust/broadside/pkg/grid"
)

type Phase byte

const (
	PhaseCountdown Phase = iota
	PhaseTurn
	PhaseOver
)

func (p Phase) String() string {
	switch p {
	case PhaseCountdown:
		return "countdown"
	case PhaseTurn:
		return "turn"
	case PhaseOver:
		return "over"
	}
	return "unknown"
}

type Result struct {
	Winner *Participant
	Loser  *Participant
	// Everyone who played, in join order.
	Cohort []*Participant
}

type State struct {
	Phase Phase
	// Whose turn it is, only meaningful in PhaseTurn.
	Turn   int
	Result *Result
}

func TurnOf(i int) State {
	return State{
		Phase: PhaseTurn,
		Turn:  i,
	}
}

// Outcome is what came of one turn's input.
type Outcome byte

const (
	OutcomeInvalid Outcome = iota
	OutcomeMiss
	OutcomeHit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeMiss:
		return "miss"
	case OutcomeHit:
		return "hit"
	}
	return "unknown"
}

// Next is the state that follows TurnOf(turn) for a given outcome. A hit
// or an invalid target keeps the turn; a miss passes it along the ring.
func Next(turn int, outcome Outcome, capacity int) State {
	if outcome == OutcomeMiss {
		return TurnOf((turn + 1) % capacity)
	}
	return TurnOf(turn)
}

func (m *Match) countdown(ctx context.Context) error {
	logger := m.Logger()
	logger.Info().Msg("[#] game is starting")

	interval := m.config.CountdownInterval
	if interval <= 0 {
		for count := m.config.Countdown; count > 0; count-- {
			err := m.broadcast(CountdownNotice(count))
			if err != nil {
				return err
			}
		}
		return nil
	}

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for count := m.config.Countdown; count > 0; count-- {
		err := m.broadcast(CountdownNotice(count))
		if err != nil {
			return err
		}

		select {
		case <-tick.C:
		case <-ctx.Done():
			logger.Info().Msg("countdown context canceled")
			return ctx.Err()
		}
	}

	return nil
}

// showGrids sends every participant what they know of their opponent's
// grid followed by their own.
func (m *Match) showGrids() error {
	renderer := m.config.Renderer
	for i, participant := range m.roster {
		err := participant.send(renderer.Shots(m.opponentOf(i).Grid))
		if err != nil {
			return err
		}

		err = participant.send(YOUR_GRID)
		if err != nil {
			return err
		}

		err = participant.send(renderer.Fleet(participant.Grid))
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Match) announceTurn(i int) error {
	shooter := m.roster[i]
	for j, participant := range m.roster {
		if j == i {
			continue
		}

		err := participant.send(TurnNotice(shooter.Name))
		if err != nil {
			return err
		}
	}

	return shooter.send(TurnPrompt(m.opponentOf(i).Name))
}

// shoot reads a target from participant i and fires at their opponent.
func (m *Match) shoot(i int) (Outcome, error) {
	logger := m.Logger()
	shooter := m.roster[i]
	opponent := m.opponentOf(i)

	line, err := shooter.readLine()
	if err != nil {
		return OutcomeInvalid, err
	}

	target, err := grid.ParseCoordinate(line, opponent.Grid.Width, opponent.Grid.Height)
	if err != nil {
		logger.Debug().Err(err).Str("name", shooter.Name).Msg("invalid target")
		return OutcomeInvalid, shooter.send(INVALID_TARGET)
	}

	logger.Info().
		Str("name", shooter.Name).
		Str("target", target.String()).
		Msgf("[#] %s is firing a shot", shooter.Name)

	outcome := OutcomeMiss
	notice := MISS_NOTICE
	if opponent.Grid.Fire(target) {
		outcome = OutcomeHit
		notice = HIT_NOTICE
	}

	err = shooter.send(notice)
	if err != nil {
		return outcome, err
	}

	err = shooter.send(RemainingNotice(opponent.Name, opponent.Grid.Remaining()))
	if err != nil {
		return outcome, err
	}

	return outcome, opponent.send(FiringNotice(shooter.Name, target))
}

func (m *Match) finish(i int) (State, error) {
	loser := m.roster[i]
	winner := m.opponentOf(i)

	logger := m.Logger()
	logger.Info().
		Str("winner", winner.Name).
		Str("loser", loser.Name).
		Msgf("[#] %s won", winner.Name)

	result := &Result{
		Winner: winner,
		Loser:  loser,
		Cohort: m.Roster(),
	}

	err := loser.send(DefeatNotice(winner.Name))
	if err != nil {
		return State{}, err
	}

	err = winner.send(VICTORY_NOTICE)
	if err != nil {
		return State{}, err
	}

	m.Clear()

	return State{
		Phase:  PhaseOver,
		Result: result,
	}, nil
}

func (m *Match) turn(i int) (State, error) {
	if i < 0 || i >= len(m.roster) {
		return State{}, errors.New("turn index out of range")
	}

	participant := m.roster[i]

	if participant.Grid.IsDefeated() {
		return m.finish(i)
	}

	err := m.showGrids()
	if err != nil {
		return State{}, err
	}

	logger := m.Logger()
	logger.Debug().Msgf("[#] %s's turn", participant.Name)

	err = m.announceTurn(i)
	if err != nil {
		return State{}, err
	}

	outcome, err := m.shoot(i)
	if err != nil {
		return State{}, err
	}

	return Next(i, outcome, len(m.roster)), nil
}

// Step performs exactly one transition of the match.
func (m *Match) Step(ctx context.Context, state State) (State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}

	switch state.Phase {
	case PhaseCountdown:
		err := m.countdown(ctx)
		if err != nil {
			return state, err
		}
		return TurnOf(0), nil
	case PhaseTurn:
		return m.turn(state.Turn)
	}

	return state, ErrMatchOver
}

// Play runs a full cohort from the countdown until one fleet is destroyed.
// Grids must already have been dealt.
func (m *Match) Play(ctx context.Context) (*Result, error) {
	if !m.IsReady() {
		return nil, ErrNotReady
	}

	for _, participant := range m.roster {
		if participant.Grid == nil {
			return nil, ErrNotDealt
		}
	}

	state := State{Phase: PhaseCountdown}
	for state.Phase != PhaseOver {
		next, err := m.Step(ctx, state)
		if err != nil {
			return nil, err
		}
		state = next
	}

	return state.Result, nil
}
