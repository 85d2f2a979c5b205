package match

import (
	"fmt"

	"github.com/cfoust/broadside/pkg/grid"
)

// A Channel is a participant's line-oriented connection to the server.
type Channel interface {
	Send(message string) error
	ReadLine() (string, error)
}

type Participant struct {
	ID      uint32
	Name    string
	Channel Channel
	// Assigned by Deal once the cohort is full.
	Grid *grid.Grid
}

func NewParticipant(id uint32, name string, channel Channel) *Participant {
	return &Participant{
		ID:      id,
		Name:    name,
		Channel: channel,
	}
}

func (p *Participant) Reference() string {
	return fmt.Sprintf("%s (%d)", p.Name, p.ID)
}

func (p *Participant) send(message string) error {
	err := p.Channel.Send(message)
	if err != nil {
		return &ChannelError{
			Participant: p,
			Op:          "send",
			Err:         err,
		}
	}
	return nil
}

func (p *Participant) readLine() (string, error) {
	line, err := p.Channel.ReadLine()
	if err != nil {
		return "", &ChannelError{
			Participant: p,
			Op:          "read",
			Err:         err,
		}
	}
	return line, nil
}
