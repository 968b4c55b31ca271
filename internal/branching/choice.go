package branching

import (
	"fmt"

	"github.com/branchplay/branchplay/internal/scene"
)

// Jump describes the seek that followed an answer.
type Jump struct {
	QuestionID string       `json:"questionId"`
	Option     scene.Option `json:"option"`
	Target     float64      `json:"target"`
}

// ChoiceHandler turns a viewer's answer into a seek followed by play.
type ChoiceHandler struct {
	registry  *Registry
	player    Player
	presenter Presenter
	duration  float64
}

func NewChoiceHandler(r *Registry, p Player, pr Presenter) *ChoiceHandler {
	if pr == nil {
		pr = nopPresenter{}
	}
	return &ChoiceHandler{registry: r, player: p, presenter: pr}
}

// SetDuration records the media length used to clamp jump targets when the
// player cannot report it. Non-positive values mean unknown.
func (c *ChoiceHandler) SetDuration(seconds float64) {
	if seconds > 0 && isFinite(seconds) {
		c.duration = seconds
		return
	}
	c.duration = 0
}

// Select answers a visible, unanswered question. Validation failures leave
// the state untouched; once validation passes the question stays answered
// even if the seek or play command fails.
func (c *ChoiceHandler) Select(questionID string, opt scene.Option) (Jump, error) {
	st, err := c.awaiting(questionID)
	if err != nil {
		return Jump{}, err
	}
	if !st.hasOption(opt) {
		return Jump{}, fmt.Errorf("select %q on %s: %w", opt.Label, questionID, ErrInvalidOption)
	}
	return c.commit(st, opt)
}

// SelectIndex answers with the option at index i of the question's definition.
func (c *ChoiceHandler) SelectIndex(questionID string, i int) (Jump, error) {
	st, err := c.awaiting(questionID)
	if err != nil {
		return Jump{}, err
	}
	if i < 0 || i >= len(st.def.Options) {
		return Jump{}, fmt.Errorf("select option %d on %s: %w", i, questionID, ErrInvalidOption)
	}
	return c.commit(st, st.def.Options[i])
}

func (c *ChoiceHandler) awaiting(questionID string) (*QuestionState, error) {
	st, ok := c.registry.Get(questionID)
	if !ok {
		return nil, fmt.Errorf("select %s: %w", questionID, ErrUnknownQuestion)
	}
	if !st.visible || st.answered {
		return nil, fmt.Errorf("select %s (visible=%t answered=%t): %w", questionID, st.visible, st.answered, ErrInvalidState)
	}
	return st, nil
}

func (c *ChoiceHandler) commit(st *QuestionState, opt scene.Option) (Jump, error) {
	st.answered = true
	c.presenter.Dismiss(st.def.ID)

	jump := Jump{QuestionID: st.def.ID, Option: opt, Target: c.clamp(opt.JumpTo)}
	if err := c.player.SeekTo(jump.Target); err != nil {
		return jump, &PlaybackError{Op: "seek", Err: err}
	}
	if err := c.player.Play(); err != nil {
		return jump, &PlaybackError{Op: "play", Err: err}
	}
	return jump, nil
}

func (c *ChoiceHandler) clamp(target float64) float64 {
	if target < 0 || !isFinite(target) {
		target = 0
	}
	if d, ok := c.knownDuration(); ok && target > d {
		return d
	}
	return target
}

func (c *ChoiceHandler) knownDuration() (float64, bool) {
	if src, ok := c.player.(DurationSource); ok {
		if d, ok := src.Duration(); ok && d > 0 && isFinite(d) {
			return d, true
		}
	}
	if c.duration > 0 {
		return c.duration, true
	}
	return 0, false
}
