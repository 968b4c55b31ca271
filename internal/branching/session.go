package branching

import (
	"math"
	"sync"

	"github.com/branchplay/branchplay/internal/scene"
)

// Session serializes every signal for one playback session behind a single
// mutex, so each call observes and updates question state atomically.
type Session struct {
	mu       sync.Mutex
	registry *Registry
	engine   *Engine
	choices  *ChoiceHandler
}

// NewSession builds an independent registry for sc and wires the engine and
// choice handler to the given player and presenter.
func NewSession(sc scene.Scene, p Player, pr Presenter) (*Session, error) {
	reg, err := NewRegistry(sc)
	if err != nil {
		return nil, err
	}
	s := &Session{
		registry: reg,
		engine:   NewEngine(reg, p, pr),
		choices:  NewChoiceHandler(reg, p, pr),
	}
	s.choices.SetDuration(sc.DurationSeconds)
	return s, nil
}

func (s *Session) SceneID() string { return s.registry.SceneID() }

func (s *Session) Progress(t float64) ([]Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.OnProgress(t)
}

func (s *Session) Seek(t float64) []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.OnSeek(t)
}

func (s *Session) Select(questionID string, opt scene.Option) (Jump, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.choices.Select(questionID, opt)
}

func (s *Session) SelectIndex(questionID string, i int) (Jump, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.choices.SelectIndex(questionID, i)
}

func (s *Session) SetDuration(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.choices.SetDuration(seconds)
}

func (s *Session) Pending() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Pending()
}

// Prompts lists every question of the session's own scene copy in
// definition order, whatever its state.
func (s *Session) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := s.registry.AllStates()
	prompts := make([]Prompt, 0, len(states))
	for _, st := range states {
		prompts = append(prompts, NewPrompt(st.def))
	}
	return prompts
}

func (s *Session) Snapshot() []StateView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Snapshot()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
