package branching

import (
	"github.com/branchplay/branchplay/internal/scene"
)

// QuestionState is the runtime record for one question of a session.
// Only the engine and the choice handler mutate it.
type QuestionState struct {
	def      scene.Question
	visible  bool
	answered bool
}

func (q *QuestionState) Definition() scene.Question { return q.def }
func (q *QuestionState) Visible() bool              { return q.visible }
func (q *QuestionState) Answered() bool             { return q.answered }

// eligible reports whether playback at t should reveal the question.
func (q *QuestionState) eligible(t float64) bool {
	return !q.visible && !q.answered && t >= q.def.AppearTime
}

func (q *QuestionState) hasOption(opt scene.Option) bool {
	for _, o := range q.def.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// StateView is a value snapshot of a QuestionState.
type StateView struct {
	ID         string  `json:"id"`
	AppearTime float64 `json:"appearTime"`
	Visible    bool    `json:"visible"`
	Answered   bool    `json:"answered"`
}

// Registry owns the question states of one playback session.
type Registry struct {
	sceneID string
	states  []*QuestionState
	byID    map[string]*QuestionState
}

// NewRegistry validates the scene's questions and builds fresh state for each.
// Registries never share state.
func NewRegistry(sc scene.Scene) (*Registry, error) {
	if err := scene.ValidateQuestions(sc.ID, sc.Questions); err != nil {
		return nil, err
	}
	questions := scene.CloneQuestions(sc.Questions)
	r := &Registry{
		sceneID: sc.ID,
		states:  make([]*QuestionState, len(questions)),
		byID:    make(map[string]*QuestionState, len(questions)),
	}
	for i, q := range questions {
		st := &QuestionState{def: q}
		r.states[i] = st
		r.byID[q.ID] = st
	}
	return r, nil
}

func (r *Registry) SceneID() string { return r.sceneID }

// AllStates returns every state in definition order.
func (r *Registry) AllStates() []*QuestionState {
	return append([]*QuestionState(nil), r.states...)
}

func (r *Registry) Get(id string) (*QuestionState, bool) {
	st, ok := r.byID[id]
	return st, ok
}

func (r *Registry) Len() int { return len(r.states) }

func (r *Registry) Snapshot() []StateView {
	out := make([]StateView, len(r.states))
	for i, st := range r.states {
		out[i] = StateView{
			ID:         st.def.ID,
			AppearTime: st.def.AppearTime,
			Visible:    st.visible,
			Answered:   st.answered,
		}
	}
	return out
}
