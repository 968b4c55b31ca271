package branching

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownQuestion = errors.New("unknown question")
	ErrInvalidState    = errors.New("question is not awaiting an answer")
	ErrInvalidOption   = errors.New("option does not belong to question")
	ErrPlaybackCommand = errors.New("playback command failed")
)

// PlaybackError wraps a failed pause, seek or play. It never invalidates the
// state change that triggered the command.
type PlaybackError struct {
	Op  string
	Err error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback %s: %v", e.Op, e.Err)
}

func (e *PlaybackError) Unwrap() []error {
	return []error{ErrPlaybackCommand, e.Err}
}
