package recommend

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a recommendation table:
//
//	fallback: Dispose Responsibly ♻️
//	actions:
//	  plastic: Recycle ♻️
//	  paper: Reuse 📄
type File struct {
	Fallback string            `yaml:"fallback"`
	Actions  map[string]string `yaml:"actions"`
}

// LoadMap reads a YAML table from path. Labels missing from the file keep
// their built-in action unless replace is set.
func LoadMap(path string, replace bool) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recommendations: %w", err)
	}
	return ParseMap(data, replace)
}

func ParseMap(data []byte, replace bool) (*Map, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse recommendations: %w", err)
	}

	entries := DefaultEntries()
	if replace {
		entries = make(map[string]string, len(f.Actions))
	}
	for label, action := range f.Actions {
		if Normalize(label) == "" {
			return nil, fmt.Errorf("recommendation with empty label")
		}
		entries[Normalize(label)] = action
	}
	return NewMap(entries, f.Fallback), nil
}
