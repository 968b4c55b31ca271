package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Scenes []Scene `yaml:"scenes"`
}

// LoadFile reads, parses and validates a YAML scene catalog.
func LoadFile(path string) ([]Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenes file: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) ([]Scene, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scenes file: %w", err)
	}
	seen := make(map[string]bool, len(file.Scenes))
	for i := range file.Scenes {
		s := &file.Scenes[i]
		if s.Questions == nil {
			s.Questions = []Question{}
		}
		if err := Validate(*s); err != nil {
			return nil, err
		}
		if seen[s.ID] {
			return nil, &ConfigurationError{Scene: s.ID, Problems: []string{"scene id declared more than once"}}
		}
		seen[s.ID] = true
	}
	return file.Scenes, nil
}
