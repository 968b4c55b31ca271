package scene

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func validScene() Scene {
	return Scene{
		ID:    "demo",
		Title: "Demo",
		Questions: []Question{
			{ID: "a", AppearTime: 5, Text: "First?", PauseOnShow: true, Options: []Option{{Label: "yes", JumpTo: 10}}},
			{ID: "b", AppearTime: 35, Text: "Second?", Options: []Option{{Label: "left", JumpTo: 40}, {Label: "right", JumpTo: 80}}},
		},
	}
}

func TestValidate_AcceptsValidScene(t *testing.T) {
	if err := Validate(validScene()); err != nil {
		t.Fatalf("expected valid scene, got %v", err)
	}
}

func TestValidate_BuiltinSceneIsValid(t *testing.T) {
	if err := Validate(Builtin()); err != nil {
		t.Fatalf("expected builtin scene to validate, got %v", err)
	}
}

func TestValidate_RejectsDuplicateIDs(t *testing.T) {
	sc := validScene()
	sc.Questions[1].ID = "a"

	err := Validate(sc)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if !containsProblem(cfgErr.Problems, "duplicate id") {
		t.Errorf("expected duplicate id problem, got %v", cfgErr.Problems)
	}
}

func TestValidate_RejectsQuestionWithoutOptions(t *testing.T) {
	sc := validScene()
	sc.Questions[0].Options = nil

	err := Validate(sc)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if !containsProblem(cfgErr.Problems, "at least one option is required") {
		t.Errorf("expected missing options problem, got %v", cfgErr.Problems)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	sc := Scene{
		ID: "broken",
		Questions: []Question{
			{ID: "", AppearTime: -1, Options: []Option{{Label: "x", JumpTo: math.NaN()}}},
			{ID: "q", AppearTime: 1},
		},
	}

	err := Validate(sc)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	for _, want := range []string{"id is required", "appear time", "jump target", "at least one option"} {
		if !containsProblem(cfgErr.Problems, want) {
			t.Errorf("expected a problem containing %q, got %v", want, cfgErr.Problems)
		}
	}
	if !strings.Contains(cfgErr.Error(), `"broken"`) {
		t.Errorf("expected error to name the scene, got %q", cfgErr.Error())
	}
}

func TestValidate_RequiresSceneID(t *testing.T) {
	sc := validScene()
	sc.ID = " "
	if err := Validate(sc); err == nil {
		t.Fatal("expected error for blank scene id")
	}
}

func TestValidateQuestions_EmptyListIsValid(t *testing.T) {
	if err := ValidateQuestions("nonexistent", nil); err != nil {
		t.Fatalf("expected empty question list to be valid, got %v", err)
	}
}

func TestValidateQuestions_OnlyStructuralRules(t *testing.T) {
	qs := []Question{{
		ID:         strings.Repeat("q", 500),
		AppearTime: 1,
		Text:       strings.Repeat("long ", 2000),
		Options:    make([]Option, 20),
	}}
	for i := range qs[0].Options {
		qs[0].Options[i] = Option{Label: "o", JumpTo: float64(i)}
	}

	if err := ValidateQuestions("big", qs); err != nil {
		t.Fatalf("authoring limits should not fail structural validation, got %v", err)
	}
	if err := Validate(Scene{ID: "big", Questions: qs}); err == nil {
		t.Fatal("expected Validate to enforce authoring limits")
	}

	qs = append(qs, Question{ID: qs[0].ID, AppearTime: -1})
	err := ValidateQuestions("big", qs)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	for _, want := range []string{"duplicate id", "appear time", "at least one option"} {
		if !containsProblem(cfgErr.Problems, want) {
			t.Errorf("expected a problem containing %q, got %v", want, cfgErr.Problems)
		}
	}
}

func TestClone_DoesNotShareOptions(t *testing.T) {
	original := validScene()
	clone := original.Clone()
	clone.Questions[0].Options[0].JumpTo = 999

	if original.Questions[0].Options[0].JumpTo != 10 {
		t.Errorf("mutating the clone changed the original: %v", original.Questions[0].Options[0])
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{85.9, "01:25"},
		{175, "02:55"},
		{3725, "62:05"},
		{-3, "00:00"},
		{math.NaN(), "00:00"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.seconds); got != tt.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func containsProblem(problems []string, substr string) bool {
	for _, p := range problems {
		if strings.Contains(p, substr) {
			return true
		}
	}
	return false
}
