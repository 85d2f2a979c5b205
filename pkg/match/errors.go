package match

import (
	"errors"
	"fmt"
)

var (
	ErrLobbyFull = errors.New("lobby is full")
	ErrNotReady  = errors.New("cohort is not full")
	ErrNotDealt  = errors.New("grids have not been dealt")
	ErrMatchOver = errors.New("match is over")
)

// ChannelError is a failure to talk to one participant. It ends the match.
type ChannelError struct {
	Participant *Participant
	Op          string
	Err         error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Participant.Reference(), e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}
