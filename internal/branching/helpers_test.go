package branching

import (
	"fmt"

	"github.com/branchplay/branchplay/internal/scene"
)

type fakePlayer struct {
	commands    []string
	pauseErr    error
	seekErr     error
	playErr     error
	duration    float64
	hasDuration bool
}

func (p *fakePlayer) Pause() error {
	p.commands = append(p.commands, "pause")
	return p.pauseErr
}

func (p *fakePlayer) Play() error {
	p.commands = append(p.commands, "play")
	return p.playErr
}

func (p *fakePlayer) SeekTo(seconds float64) error {
	p.commands = append(p.commands, fmt.Sprintf("seek:%g", seconds))
	return p.seekErr
}

func (p *fakePlayer) count(cmd string) int {
	n := 0
	for _, c := range p.commands {
		if c == cmd {
			n++
		}
	}
	return n
}

type durationPlayer struct {
	fakePlayer
}

func (p *durationPlayer) Duration() (float64, bool) {
	return p.duration, p.hasDuration
}

type fakePresenter struct {
	revealed  []string
	dismissed []string
}

func (p *fakePresenter) Reveal(pr Prompt)  { p.revealed = append(p.revealed, pr.ID) }
func (p *fakePresenter) Dismiss(id string) { p.dismissed = append(p.dismissed, id) }

// threeStops has questions at 5, 35 and 85 seconds, declared out of time order.
func threeStops() scene.Scene {
	return scene.Scene{
		ID: "stops",
		Questions: []scene.Question{
			{ID: "late", AppearTime: 85, Text: "Late?", PauseOnShow: true, Options: []scene.Option{{Label: "again", JumpTo: 0}}},
			{ID: "early", AppearTime: 5, Text: "Early?", PauseOnShow: true, Options: []scene.Option{{Label: "on", JumpTo: 10}, {Label: "skip", JumpTo: 80}}},
			{ID: "middle", AppearTime: 35, Text: "Middle?", PauseOnShow: false, Options: []scene.Option{{Label: "go", JumpTo: 42}}},
		},
	}
}

func newTestSession(sc scene.Scene) (*Session, *fakePlayer, *fakePresenter) {
	player := &fakePlayer{}
	presenter := &fakePresenter{}
	s, err := NewSession(sc, player, presenter)
	if err != nil {
		panic(err)
	}
	return s, player, presenter
}

func visible(s *Session, id string) bool {
	for _, v := range s.Snapshot() {
		if v.ID == id {
			return v.Visible
		}
	}
	return false
}

func ids(prompts []Prompt) []string {
	out := make([]string, len(prompts))
	for i, p := range prompts {
		out[i] = p.ID
	}
	return out
}
