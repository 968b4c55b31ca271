package playback

import (
	"log/slog"

	"github.com/branchplay/branchplay/internal/branching"
)

const (
	CommandPause = "pause"
	CommandSeek  = "seek"
	CommandPlay  = "play"
)

// Command is an instruction for the browser's video element.
type Command struct {
	Type string   `json:"type"`
	Time *float64 `json:"time,omitempty"`
}

// Frame is one server-to-client WebSocket message.
type Frame struct {
	Type       string                `json:"type"`
	Question   *branching.Prompt     `json:"question,omitempty"`
	QuestionID string                `json:"questionId,omitempty"`
	Command    *Command              `json:"command,omitempty"`
	Pending    []branching.Prompt    `json:"pending,omitempty"`
	State      []branching.StateView `json:"state,omitempty"`
	Error      string                `json:"error,omitempty"`
	Code       string                `json:"code,omitempty"`
}

// Sink receives frames as soon as the engine produces them.
type Sink interface {
	Send(f Frame) error
}

// relay is the Player and Presenter of one playback session. Everything the
// engine emits is buffered for the current call and, when a live connection
// is attached, forwarded to it immediately. A failed forward is reported as
// a failed playback command.
type relay struct {
	sink      Sink
	revealed  []branching.Prompt
	dismissed []string
	commands  []Command
}

func (r *relay) Pause() error {
	return r.command(Command{Type: CommandPause})
}

func (r *relay) Play() error {
	return r.command(Command{Type: CommandPlay})
}

func (r *relay) SeekTo(seconds float64) error {
	return r.command(Command{Type: CommandSeek, Time: &seconds})
}

func (r *relay) command(c Command) error {
	r.commands = append(r.commands, c)
	if r.sink == nil {
		return nil
	}
	return r.sink.Send(Frame{Type: "command", Command: &c})
}

func (r *relay) Reveal(p branching.Prompt) {
	r.revealed = append(r.revealed, p)
	if r.sink != nil {
		if err := r.sink.Send(Frame{Type: "reveal", Question: &p}); err != nil {
			slog.Warn("playback: failed to push reveal", "question_id", p.ID, "error", err)
		}
	}
}

func (r *relay) Dismiss(questionID string) {
	r.dismissed = append(r.dismissed, questionID)
	if r.sink != nil {
		if err := r.sink.Send(Frame{Type: "dismiss", QuestionID: questionID}); err != nil {
			slog.Warn("playback: failed to push dismiss", "question_id", questionID, "error", err)
		}
	}
}

func (r *relay) reset() {
	r.revealed = nil
	r.dismissed = nil
	r.commands = nil
}
