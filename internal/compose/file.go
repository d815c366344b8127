package compose

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// File is the subset of a compose file the dashboard cares about.
type File struct {
	Services map[string]Definition `yaml:"services"`
}

// Definition is one container service inside a compose file.
type Definition struct {
	Image         string `yaml:"image"`
	ContainerName string `yaml:"container_name"`
}

// Parse decodes compose yaml. It is deliberately loose: anything with a
// parsable services mapping passes, unknown keys are ignored.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses a compose file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compose file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse compose file: %w", err)
	}
	return f, nil
}

// ServiceNames returns the container service names sorted alphabetically.
func (f *File) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for name := range f.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
