package match

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/cfoust/broadside/pkg/grid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	sent    []string
	lines   []string
	sendErr error
}

var _ Channel = (*fakeChannel)(nil)

func (c *fakeChannel) Send(message string) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, message)
	return nil
}

func (c *fakeChannel) ReadLine() (string, error) {
	if len(c.lines) == 0 {
		return "", io.EOF
	}
	line := c.lines[0]
	c.lines = c.lines[1:]
	return line, nil
}

func (c *fakeChannel) last() string {
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1]
}

// Every participant gets a single ship on A1 and A2.
type fixedPlacer struct{}

func (fixedPlacer) Place(width, height int) (*grid.Grid, error) {
	return grid.New(
		width,
		height,
		grid.NewShip(grid.Coordinate{X: 0, Y: 0}, grid.Coordinate{X: 0, Y: 1}),
	), nil
}

func testConfig() Config {
	config := DefaultConfig()
	config.CountdownInterval = 0
	return config
}

func newCohort(t *testing.T, m *Match, lines ...[]string) []*fakeChannel {
	names := []string{"A", "B", "C"}
	channels := make([]*fakeChannel, 0)
	for i := 0; i < m.Config().Capacity; i++ {
		channel := &fakeChannel{}
		if i < len(lines) {
			channel.lines = lines[i]
		}
		channels = append(channels, channel)
		require.NoError(t, m.Join(NewParticipant(uint32(i), names[i], channel)))
	}
	require.True(t, m.IsReady())
	require.NoError(t, m.Deal(fixedPlacer{}))
	return channels
}

func TestOpponent(t *testing.T) {
	assert.Equal(t, 1, Opponent(0, 3))
	assert.Equal(t, 2, Opponent(1, 3))
	assert.Equal(t, 0, Opponent(2, 3))

	for i := 0; i < 3; i++ {
		assert.NotEqual(t, i, Opponent(Opponent(i, 3), 3), "ring is symmetric at %d", i)
	}

	// Two participants simply fire at each other
	assert.Equal(t, 1, Opponent(0, 2))
	assert.Equal(t, 0, Opponent(1, 2))
}

func TestJoin(t *testing.T) {
	m := New(testConfig())

	a, b, c := &fakeChannel{}, &fakeChannel{}, &fakeChannel{}

	require.NoError(t, m.Join(NewParticipant(0, "A", a)))
	assert.Equal(t, []string{WAITING_NOTICE}, a.sent)
	assert.False(t, m.IsReady())

	require.NoError(t, m.Join(NewParticipant(1, "B", b)))
	assert.Empty(t, b.sent)
	assert.False(t, m.IsReady())

	require.NoError(t, m.Join(NewParticipant(2, "C", c)))
	assert.True(t, m.IsReady())
	assert.Equal(t, "Your opponent is B\n", a.last())
	assert.Equal(t, "Your opponent is C\n", b.last())
	assert.Equal(t, "Your opponent is A\n", c.last())

	d := &fakeChannel{}
	err := m.Join(NewParticipant(3, "D", d))
	assert.ErrorIs(t, err, ErrLobbyFull)
	assert.Equal(t, 3, m.Len())
	assert.Empty(t, d.sent)

	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.IsReady())
}

func TestJoinSendFailure(t *testing.T) {
	m := New(testConfig())
	broken := errors.New("broken pipe")

	err := m.Join(NewParticipant(0, "A", &fakeChannel{sendErr: broken}))

	var channelErr *ChannelError
	require.ErrorAs(t, err, &channelErr)
	assert.Equal(t, "A", channelErr.Participant.Name)
	assert.Equal(t, "send", channelErr.Op)
	assert.ErrorIs(t, err, broken)
}

func TestNext(t *testing.T) {
	assert.Equal(t, TurnOf(1), Next(1, OutcomeHit, 3))
	assert.Equal(t, TurnOf(1), Next(1, OutcomeInvalid, 3))
	assert.Equal(t, TurnOf(2), Next(1, OutcomeMiss, 3))
	assert.Equal(t, TurnOf(0), Next(2, OutcomeMiss, 3))
}

func TestStep(t *testing.T) {
	m := New(testConfig())
	channels := newCohort(t, m, []string{"K1", "A1", "B2"})
	a, b, c := channels[0], channels[1], channels[2]
	roster := m.Roster()
	target := roster[1].Grid

	ctx := context.Background()

	// Invalid input keeps the turn and records nothing
	state, err := m.Step(ctx, TurnOf(0))
	require.NoError(t, err)
	assert.Equal(t, TurnOf(0), state)
	assert.Empty(t, target.Hits)
	assert.Equal(t, INVALID_TARGET, a.last())
	assert.Contains(t, a.sent, TurnPrompt("B"))
	assert.Contains(t, b.sent, TurnNotice("A"))
	assert.Contains(t, c.sent, TurnNotice("A"))
	assert.Contains(t, a.sent, YOUR_GRID)

	// A hit keeps the turn
	state, err = m.Step(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, TurnOf(0), state)
	require.Len(t, target.Hits, 1)
	assert.True(t, target.Ships[0].Coords[0].IsHit)
	assert.False(t, target.Ships[0].Coords[1].IsHit)
	assert.Contains(t, a.sent, HIT_NOTICE)
	assert.Equal(t, "B has 1 ships remaining.\n", a.last())
	assert.Equal(t, "A is firing at A1\n", b.last())

	// A miss passes the turn along
	state, err = m.Step(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, TurnOf(1), state)
	assert.Len(t, target.Hits, 2)
	assert.Contains(t, a.sent, MISS_NOTICE)
	assert.Equal(t, "A is firing at B2\n", b.last())

	// C's grid was never touched
	assert.Empty(t, roster[2].Grid.Hits)
	assert.Empty(t, roster[0].Grid.Hits)
}

func TestCountdown(t *testing.T) {
	m := New(testConfig())
	channels := newCohort(t, m)

	state, err := m.Step(context.Background(), State{Phase: PhaseCountdown})
	require.NoError(t, err)
	assert.Equal(t, TurnOf(0), state)

	for _, channel := range channels {
		require.GreaterOrEqual(t, len(channel.sent), 3)
		assert.Equal(t, []string{
			"Game starts in 3...\n",
			"Game starts in 2...\n",
			"Game starts in 1...\n",
		}, channel.sent[len(channel.sent)-3:])
	}
}

func TestCountdownCanceled(t *testing.T) {
	config := testConfig()
	config.CountdownInterval = time.Hour
	m := New(config)
	newCohort(t, m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Step(ctx, State{Phase: PhaseCountdown})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefeatedAtEntry(t *testing.T) {
	m := New(testConfig())
	// A misses, then B finds their fleet already gone
	channels := newCohort(t, m, []string{"J10"})
	a, b, c := channels[0], channels[1], channels[2]

	for _, ship := range m.Roster()[1].Grid.Ships {
		for i := range ship.Coords {
			ship.Coords[i].IsHit = true
		}
	}

	result, err := m.Play(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "C", result.Winner.Name)
	assert.Equal(t, "B", result.Loser.Name)
	assert.Len(t, result.Cohort, 3)

	assert.Equal(t, "C won.\n", b.last())
	assert.Equal(t, VICTORY_NOTICE, c.last())
	assert.NotContains(t, a.sent, VICTORY_NOTICE)
	assert.NotContains(t, b.sent, TurnPrompt("C"))
	assert.Equal(t, 0, m.Len())

	_, err = m.Step(context.Background(), State{Phase: PhaseOver})
	assert.ErrorIs(t, err, ErrMatchOver)
}

func TestPlayToTheEnd(t *testing.T) {
	m := New(testConfig())
	// A sinks B's only ship without giving up the turn
	channels := newCohort(t, m, []string{"A1", "A2", "C5"})
	b := channels[1]

	result, err := m.Play(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "C", result.Winner.Name)
	assert.Equal(t, "B", result.Loser.Name)
	assert.Equal(t, "B has 0 ships remaining.\n", channels[0].last())
	assert.Equal(t, "C won.\n", b.last())
}

func TestPlayChannelError(t *testing.T) {
	m := New(testConfig())
	newCohort(t, m)

	_, err := m.Play(context.Background())

	var channelErr *ChannelError
	require.ErrorAs(t, err, &channelErr)
	assert.Equal(t, "A", channelErr.Participant.Name)
	assert.Equal(t, "read", channelErr.Op)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPlayNotReady(t *testing.T) {
	m := New(testConfig())
	require.NoError(t, m.Join(NewParticipant(0, "A", &fakeChannel{})))

	_, err := m.Play(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, m.Join(NewParticipant(1, "B", &fakeChannel{})))
	require.NoError(t, m.Join(NewParticipant(2, "C", &fakeChannel{})))

	_, err = m.Play(context.Background())
	assert.ErrorIs(t, err, ErrNotDealt)
}
