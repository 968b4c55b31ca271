package scene

import (
	"fmt"
	"math"
	"strings"

	"github.com/branchplay/branchplay/internal/validate"
)

// Option is one answer to a question. Choosing it seeks the video to JumpTo.
type Option struct {
	Label  string  `json:"label" yaml:"label"`
	JumpTo float64 `json:"jumpTo" yaml:"jump_to"`
}

// Question is an authored decision point. It becomes eligible to show once
// playback reaches AppearTime.
type Question struct {
	ID          string   `json:"id" yaml:"id"`
	AppearTime  float64  `json:"appearTime" yaml:"appear_time"`
	Text        string   `json:"text" yaml:"text"`
	PauseOnShow bool     `json:"pauseOnShow" yaml:"pause_on_show"`
	Options     []Option `json:"options" yaml:"options"`
}

// Scene is a named, ordered set of questions tied to one video.
type Scene struct {
	ID              string     `json:"id" yaml:"id"`
	Title           string     `json:"title" yaml:"title"`
	VideoURL        string     `json:"videoUrl,omitempty" yaml:"video_url"`
	VideoKey        string     `json:"videoKey,omitempty" yaml:"video_key"`
	DurationSeconds float64    `json:"durationSeconds,omitempty" yaml:"duration_seconds"`
	Questions       []Question `json:"questions" yaml:"questions"`
}

// Clone returns a deep copy so callers never share option slices.
func (s Scene) Clone() Scene {
	out := s
	out.Questions = CloneQuestions(s.Questions)
	return out
}

func CloneQuestions(qs []Question) []Question {
	if qs == nil {
		return []Question{}
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = q
		out[i].Options = append([]Option(nil), q.Options...)
	}
	return out
}

// ConfigurationError reports every problem found in an authored scene.
type ConfigurationError struct {
	Scene    string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid scene %q: %s", e.Scene, strings.Join(e.Problems, "; "))
}

// Validate checks the scene-level fields and every question.
func Validate(s Scene) error {
	var problems []string
	if strings.TrimSpace(s.ID) == "" {
		problems = append(problems, "scene id is required")
	}
	for _, msg := range []string{
		validate.SceneID(s.ID),
		validate.SceneTitle(s.Title),
		validate.VideoURL(s.VideoURL),
	} {
		if msg != "" {
			problems = append(problems, msg)
		}
	}
	if s.DurationSeconds < 0 || !isFinite(s.DurationSeconds) {
		problems = append(problems, "duration must be a non-negative number of seconds")
	}
	problems = append(problems, questionProblems(s.Questions)...)
	if len(problems) > 0 {
		return &ConfigurationError{Scene: s.ID, Problems: problems}
	}
	return nil
}

// ValidateQuestions checks only the structural rules a session depends on:
// ids present and unique, at least one option, non-negative finite times.
// Authoring limits are left to Validate. Unknown scenes resolve to an empty
// list, which is valid.
func ValidateQuestions(sceneID string, qs []Question) error {
	if problems := structuralProblems(qs); len(problems) > 0 {
		return &ConfigurationError{Scene: sceneID, Problems: problems}
	}
	return nil
}

func questionLabel(i int, q Question) string {
	if q.ID == "" {
		return fmt.Sprintf("#%d", i+1)
	}
	return q.ID
}

func questionProblems(qs []Question) []string {
	return append(structuralProblems(qs), limitProblems(qs)...)
}

func structuralProblems(qs []Question) []string {
	var problems []string
	seen := make(map[string]bool, len(qs))
	for i, q := range qs {
		label := questionLabel(i, q)
		if q.ID == "" {
			problems = append(problems, fmt.Sprintf("question %s: id is required", label))
		} else if seen[q.ID] {
			problems = append(problems, fmt.Sprintf("question %s: duplicate id", label))
		}
		seen[q.ID] = true

		if q.AppearTime < 0 || !isFinite(q.AppearTime) {
			problems = append(problems, fmt.Sprintf("question %s: appear time must be a non-negative number of seconds", label))
		}
		if len(q.Options) == 0 {
			problems = append(problems, fmt.Sprintf("question %s: at least one option is required", label))
		}
		for j, opt := range q.Options {
			if opt.JumpTo < 0 || !isFinite(opt.JumpTo) {
				problems = append(problems, fmt.Sprintf("question %s option %d: jump target must be a non-negative number of seconds", label, j+1))
			}
		}
	}
	return problems
}

// limitProblems enforces the field limits from internal/validate.
func limitProblems(qs []Question) []string {
	var problems []string
	if len(qs) > validate.MaxQuestionsPerScene {
		problems = append(problems, fmt.Sprintf("a scene may hold at most %d questions", validate.MaxQuestionsPerScene))
	}
	for i, q := range qs {
		label := questionLabel(i, q)
		if msg := validate.QuestionID(q.ID); msg != "" {
			problems = append(problems, fmt.Sprintf("question %s: %s", label, msg))
		}
		if msg := validate.QuestionText(q.Text); msg != "" {
			problems = append(problems, fmt.Sprintf("question %s: %s", label, msg))
		}
		if len(q.Options) > validate.MaxOptionsPerQuestion {
			problems = append(problems, fmt.Sprintf("question %s: at most %d options are allowed", label, validate.MaxOptionsPerQuestion))
		}
		for j, opt := range q.Options {
			if msg := validate.OptionLabel(opt.Label); msg != "" {
				problems = append(problems, fmt.Sprintf("question %s option %d: %s", label, j+1, msg))
			}
		}
	}
	return problems
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FormatTime renders seconds as mm:ss. Minutes are not wrapped at the hour.
func FormatTime(seconds float64) string {
	if seconds < 0 || !isFinite(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
