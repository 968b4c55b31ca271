package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleCatalog = `
scenes:
  - id: kitchen
    title: Kitchen safety
    video_url: https://cdn.example.com/kitchen.mp4
    duration_seconds: 120
    questions:
      - id: knife
        appear_time: 12.5
        text: What do you do with the knife?
        pause_on_show: true
        options:
          - label: Put it away
            jump_to: 20
          - label: Leave it
            jump_to: 60
`

func TestParseCatalog(t *testing.T) {
	scenes, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(scenes))
	}
	sc := scenes[0]
	if sc.ID != "kitchen" || sc.DurationSeconds != 120 || sc.VideoURL == "" {
		t.Errorf("unexpected scene fields: %+v", sc)
	}
	q := sc.Questions[0]
	if q.ID != "knife" || q.AppearTime != 12.5 || !q.PauseOnShow {
		t.Errorf("unexpected question fields: %+v", q)
	}
	if len(q.Options) != 2 || q.Options[1].JumpTo != 60 {
		t.Errorf("unexpected options: %+v", q.Options)
	}
}

func TestParseCatalog_RejectsInvalidScene(t *testing.T) {
	data := []byte(`
scenes:
  - id: bad
    questions:
      - id: q
        appear_time: 1
        text: no options
`)
	_, err := ParseCatalog(data)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestParseCatalog_RejectsRepeatedSceneID(t *testing.T) {
	data := []byte(`
scenes:
  - id: same
  - id: same
`)
	if _, err := ParseCatalog(data); err == nil {
		t.Fatal("expected error for repeated scene id")
	}
}

func TestParseCatalog_InvalidYAML(t *testing.T) {
	if _, err := ParseCatalog([]byte("scenes: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.yaml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o600); err != nil {
		t.Fatal(err)
	}

	scenes, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenes) != 1 || scenes[0].ID != "kitchen" {
		t.Errorf("unexpected scenes: %+v", scenes)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
