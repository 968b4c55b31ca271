package branching

import (
	"errors"
	"math"

	"github.com/branchplay/branchplay/internal/scene"
)

// Prompt is what a presenter needs to render a revealed question. Jump
// targets stay on the server.
type Prompt struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	AppearTime  float64  `json:"appearTime"`
	AppearLabel string   `json:"appearLabel"`
	PauseOnShow bool     `json:"pauseOnShow"`
	Options     []string `json:"options"`
}

// NewPrompt strips the jump targets from q.
func NewPrompt(q scene.Question) Prompt {
	labels := make([]string, len(q.Options))
	for i, opt := range q.Options {
		labels[i] = opt.Label
	}
	return Prompt{
		ID:          q.ID,
		Text:        q.Text,
		AppearTime:  q.AppearTime,
		AppearLabel: scene.FormatTime(q.AppearTime),
		PauseOnShow: q.PauseOnShow,
		Options:     labels,
	}
}

// Engine reveals questions as playback passes their appear time. Both entry
// points are level-triggered: a question is revealed at most once and never
// hidden again.
type Engine struct {
	registry  *Registry
	player    Player
	presenter Presenter
}

func NewEngine(r *Registry, p Player, pr Presenter) *Engine {
	if pr == nil {
		pr = nopPresenter{}
	}
	return &Engine{registry: r, player: p, presenter: pr}
}

// OnProgress handles a continuous position update. Each newly revealed
// question with PauseOnShow issues one pause; pause failures are returned
// but the reveal stands.
func (e *Engine) OnProgress(t float64) ([]Prompt, error) {
	return e.advance(t, true)
}

// OnSeek handles a discontinuous position change. It reveals everything the
// timeline has passed and never pauses.
func (e *Engine) OnSeek(t float64) []Prompt {
	prompts, _ := e.advance(t, false)
	return prompts
}

func (e *Engine) advance(t float64, pause bool) ([]Prompt, error) {
	if math.IsNaN(t) {
		t = 0
	}
	var revealed []Prompt
	var errs []error
	for _, st := range e.registry.states {
		if !st.eligible(t) {
			continue
		}
		st.visible = true
		p := NewPrompt(st.def)
		revealed = append(revealed, p)
		e.presenter.Reveal(p)

		if pause && st.def.PauseOnShow {
			if err := e.player.Pause(); err != nil {
				errs = append(errs, &PlaybackError{Op: "pause", Err: err})
			}
		}
	}
	return revealed, errors.Join(errs...)
}

// Pending returns prompts that are visible and still unanswered.
func (e *Engine) Pending() []Prompt {
	var out []Prompt
	for _, st := range e.registry.states {
		if st.visible && !st.answered {
			out = append(out, NewPrompt(st.def))
		}
	}
	return out
}
