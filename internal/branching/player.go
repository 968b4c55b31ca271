package branching

// Player is the playback source the engine drives.
type Player interface {
	Pause() error
	Play() error
	SeekTo(seconds float64) error
}

// DurationSource is implemented by players that know the media length.
type DurationSource interface {
	Duration() (seconds float64, ok bool)
}

// Presenter renders questions. Reveal is called once per question when it
// becomes visible; Dismiss once when it is answered.
type Presenter interface {
	Reveal(p Prompt)
	Dismiss(questionID string)
}

type nopPresenter struct{}

func (nopPresenter) Reveal(Prompt)  {}
func (nopPresenter) Dismiss(string) {}
