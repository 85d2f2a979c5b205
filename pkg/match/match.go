package match

import (
	"fmt"
	"time"

	"github.com/cfoust/broadside/pkg/grid"

	fp "github.com/repeale/fp-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// The number of participants in a cohort.
	Capacity int
	Width    int
	Height   int
	// Countdown steps broadcast before the first turn.
	Countdown         int
	CountdownInterval time.Duration
	Renderer          grid.Renderer
}

func DefaultConfig() Config {
	return Config{
		Capacity:          3,
		Width:             10,
		Height:            10,
		Countdown:         3,
		CountdownInterval: time.Second,
		Renderer:          grid.TextRenderer{},
	}
}

// Opponent is the index of the participant that participant i fires at.
// Opponents form a directed ring: 0 fires at 1, 1 at 2, and the last
// participant fires at 0.
func Opponent(i, capacity int) int {
	return (i + 1) % capacity
}

// Match is the roster of one cohort and the state of the game it plays.
// It is reused for every cohort and is not safe for concurrent use.
type Match struct {
	config Config
	roster []*Participant
}

func New(config Config) *Match {
	if config.Renderer == nil {
		config.Renderer = grid.TextRenderer{}
	}

	return &Match{
		config: config,
		roster: make([]*Participant, 0, config.Capacity),
	}
}

func (m *Match) Config() Config {
	return m.config
}

func (m *Match) Logger() zerolog.Logger {
	names := fp.Map(func(p *Participant) string { return p.Name })(m.roster)
	return log.With().Strs("cohort", names).Logger()
}

func (m *Match) Len() int {
	return len(m.roster)
}

func (m *Match) IsReady() bool {
	return len(m.roster) == m.config.Capacity
}

// Roster returns a copy of the participants in join order.
func (m *Match) Roster() []*Participant {
	roster := make([]*Participant, len(m.roster))
	copy(roster, m.roster)
	return roster
}

func (m *Match) Clear() {
	m.roster = m.roster[:0]
}

func (m *Match) opponentOf(i int) *Participant {
	return m.roster[Opponent(i, len(m.roster))]
}

// Join admits a participant. The first participant is told to wait and,
// once the roster is full, every participant learns who their opponent is.
func (m *Match) Join(participant *Participant) error {
	if m.IsReady() {
		return ErrLobbyFull
	}

	m.roster = append(m.roster, participant)

	logger := m.Logger()
	logger.Info().Str("name", participant.Name).Msgf("[%d] joined", len(m.roster))

	if len(m.roster) == 1 {
		err := participant.send(WAITING_NOTICE)
		if err != nil {
			return err
		}
	}

	if !m.IsReady() {
		return nil
	}

	for i, other := range m.roster {
		err := other.send(OpponentNotice(m.opponentOf(i).Name))
		if err != nil {
			return err
		}
	}

	return nil
}

// Deal gives every participant a fresh grid.
func (m *Match) Deal(placer grid.Placer) error {
	for _, participant := range m.roster {
		g, err := placer.Place(m.config.Width, m.config.Height)
		if err != nil {
			return fmt.Errorf("could not place fleet for %s: %w", participant.Name, err)
		}
		participant.Grid = g
	}

	return nil
}

func (m *Match) broadcast(message string) error {
	for _, participant := range m.roster {
		err := participant.send(message)
		if err != nil {
			return err
		}
	}
	return nil
}
