package playback

import (
	"sync"
	"time"

	"github.com/branchplay/branchplay/internal/branching"
	"github.com/branchplay/branchplay/internal/scene"
)

// Result is what one signal produced: prompts to show, prompts to hide,
// player commands to run and the resulting question states.
type Result struct {
	Revealed  []branching.Prompt    `json:"revealed"`
	Dismissed []string              `json:"dismissed"`
	Commands  []Command             `json:"commands"`
	Jump      *branching.Jump       `json:"jump,omitempty"`
	State     []branching.StateView `json:"state"`
}

// Session is one viewer's playback of one scene. The mutex spans the engine
// call and the drain of its output so concurrent requests never mix results.
type Session struct {
	ID      string
	SceneID string
	Title   string
	Created time.Time

	mu    sync.Mutex
	core  *branching.Session
	relay *relay
	live  Sink
}

func newSession(id string, sc scene.Scene, now time.Time) (*Session, error) {
	rl := &relay{}
	core, err := branching.NewSession(sc, rl, rl)
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, SceneID: sc.ID, Title: sc.Title, Created: now, core: core, relay: rl}, nil
}

func (s *Session) Progress(t float64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relay.reset()
	_, err := s.core.Progress(t)
	return s.drain(nil), err
}

func (s *Session) Seek(t float64) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relay.reset()
	s.core.Seek(t)
	return s.drain(nil)
}

// Select answers questionID with the option at index option.
func (s *Session) Select(questionID string, option int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relay.reset()
	jump, err := s.core.SelectIndex(questionID, option)
	if err != nil && jump.QuestionID == "" {
		return s.drain(nil), err
	}
	return s.drain(&jump), err
}

func (s *Session) SetDuration(seconds float64) {
	s.core.SetDuration(seconds)
}

// Pending returns questions that are shown and still waiting for an answer.
func (s *Session) Pending() []branching.Prompt {
	return s.core.Pending()
}

// Prompts lists every question the session was created with.
func (s *Session) Prompts() []branching.Prompt {
	return s.core.Prompts()
}

func (s *Session) State() []branching.StateView {
	return s.core.Snapshot()
}

func (s *Session) drain(jump *branching.Jump) Result {
	res := Result{
		Revealed:  s.relay.revealed,
		Dismissed: s.relay.dismissed,
		Commands:  s.relay.commands,
		Jump:      jump,
		State:     s.core.Snapshot(),
	}
	if res.Revealed == nil {
		res.Revealed = []branching.Prompt{}
	}
	if res.Dismissed == nil {
		res.Dismissed = []string{}
	}
	if res.Commands == nil {
		res.Commands = []Command{}
	}
	s.relay.reset()
	return res
}

// attach makes sink the live connection of the session and returns the one
// it replaced, if any.
func (s *Session) attach(sink Sink) Sink {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.live
	s.live = sink
	s.relay.sink = sink
	return prev
}

func (s *Session) detach(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == sink {
		s.live = nil
		s.relay.sink = nil
	}
}

// stateFrame describes the session for a newly attached connection.
func (s *Session) stateFrame() Frame {
	return Frame{Type: "state", Pending: s.core.Pending(), State: s.core.Snapshot()}
}

type closer interface {
	Close() error
}

func (s *Session) closeLive() {
	s.mu.Lock()
	live := s.live
	s.live = nil
	s.relay.sink = nil
	s.mu.Unlock()

	if c, ok := live.(closer); ok {
		_ = c.Close()
	}
}
