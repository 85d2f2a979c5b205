// Package arena runs the one match the server hosts.
//
// Only one match is ever in flight. The arena's lock is taken when a
// connection is admitted and, once that admission fills the cohort, it is
// held through dealing, the countdown and every turn until the match is
// over. Connections that arrive in the meantime wait on the lock and are
// admitted to the next cohort once the roster has been cleared, so while
// serving they never see a full roster. The "Lobby is full." notice only
// goes out if a full roster is left behind without a match being played.
package arena

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cfoust/broadside/pkg/grid"
	"github.com/cfoust/broadside/pkg/ingress"
	"github.com/cfoust/broadside/pkg/match"
	"github.com/cfoust/broadside/pkg/utils"
	"github.com/cfoust/broadside/pkg/watchdog"

	fp "github.com/repeale/fp-go"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

const (
	MAX_NAME_LENGTH = 16
)

type Arena struct {
	Results *utils.Topic[*match.Result]

	match       *match.Match
	placer      grid.Placer
	watchdog    *watchdog.Watchdog
	connections []ingress.Connection
	mutex       deadlock.Mutex
}

func New(config match.Config, placer grid.Placer, stalls *watchdog.Watchdog) *Arena {
	return &Arena{
		Results:     utils.NewTopic[*match.Result](),
		match:       match.New(config),
		placer:      placer,
		watchdog:    stalls,
		connections: make([]ingress.Connection, 0, config.Capacity),
	}
}

// Waiting is the number of participants admitted to the next match. It
// blocks while a match is being played.
func (a *Arena) Waiting() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.match.Len()
}

func participantName(line string, id ingress.ClientID) string {
	name := strings.TrimSpace(line)

	if utf8.RuneCountInString(name) > MAX_NAME_LENGTH {
		name = string([]rune(name)[:MAX_NAME_LENGTH])
	}

	if name == "" {
		return fmt.Sprintf("player-%d", id)
	}

	return name
}

// uniqueName suffixes name with -2, -3 and so on until nobody in the
// roster goes by it.
func uniqueName(name string, roster []*match.Participant) string {
	candidate := name
	for suffix := 2; ; suffix++ {
		taken := fp.Some(func(p *match.Participant) bool { return p.Name == candidate })(roster)
		if !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", name, suffix)
	}
}

func greet(connection ingress.Connection) (string, error) {
	err := connection.Send(match.NAME_PROMPT)
	if err != nil {
		return "", err
	}

	line, err := connection.ReadLine()
	if err != nil {
		return "", err
	}

	return participantName(line, connection.ID()), nil
}

// watchedChannel tells the watchdog whenever the match is waiting on a
// participant.
type watchedChannel struct {
	ingress.Connection
	name     string
	watchdog *watchdog.Watchdog
}

func (c *watchedChannel) ReadLine() (string, error) {
	if c.watchdog == nil {
		return c.Connection.ReadLine()
	}

	c.watchdog.Mark(fmt.Sprintf("waiting on %s (%s)", c.name, c.Connection.Reference()))
	defer c.watchdog.Clear()
	return c.Connection.ReadLine()
}

// release hangs up on the whole cohort and empties the roster. The caller
// must hold the lock.
func (a *Arena) release() {
	for _, connection := range a.connections {
		connection.Close()
	}
	a.connections = a.connections[:0]
	a.match.Clear()
}

func (a *Arena) admit(ctx context.Context, connection ingress.Connection, name string) (*match.Result, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.match.IsReady() {
		connection.Send(match.LOBBY_FULL)
		connection.Close()
		return nil, match.ErrLobbyFull
	}

	name = uniqueName(name, a.match.Roster())

	participant := match.NewParticipant(
		uint32(connection.ID()),
		name,
		&watchedChannel{
			Connection: connection,
			name:       name,
			watchdog:   a.watchdog,
		},
	)

	a.connections = append(a.connections, connection)

	err := a.match.Join(participant)
	if err != nil {
		a.release()
		return nil, err
	}

	if !a.match.IsReady() {
		return nil, nil
	}

	defer a.release()

	err = a.match.Deal(a.placer)
	if err != nil {
		return nil, err
	}

	return a.match.Play(ctx)
}

// Handle greets a new connection and admits it to the next match. The
// arena takes ownership of the connection and closes it once the match it
// joined is over. For the connection that completes a cohort, Handle
// returns only after the whole match has been played.
func (a *Arena) Handle(ctx context.Context, connection ingress.Connection) error {
	logger := log.With().
		Uint32("client", uint32(connection.ID())).
		Str("host", connection.Host()).
		Str("type", connection.Type().String()).
		Logger()

	// Wait behind any match in progress before asking for a name
	a.mutex.Lock()
	full := a.match.IsReady()
	a.mutex.Unlock()

	if full {
		logger.Info().Msg("lobby is full")
		connection.Send(match.LOBBY_FULL)
		connection.Close()
		return match.ErrLobbyFull
	}

	name, err := greet(connection)
	if err != nil {
		connection.Close()
		return fmt.Errorf("failed to greet %s: %w", connection.Reference(), err)
	}

	logger.Info().Str("name", name).Msg("[#] new participant")

	result, err := a.admit(ctx, connection, name)
	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	a.Results.Publish(result)
	return nil
}

// Poll handles every new connection in its own goroutine until the
// context is canceled.
func (a *Arena) Poll(ctx context.Context, newConnections <-chan ingress.Connection) {
	for {
		select {
		case connection := <-newConnections:
			go func(connection ingress.Connection) {
				err := a.Handle(ctx, connection)
				if errors.Is(err, match.ErrLobbyFull) {
					return
				}
				if err != nil {
					log.Warn().Err(err).Str("client", connection.Reference()).Msg("match aborted")
				}
			}(connection)
		case <-ctx.Done():
			return
		}
	}
}
