package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Service describes one controllable service group: a named docker compose
// file plus optional dashboard metadata.
type Service struct {
	Name     string `json:"name"`
	Compose  string `json:"compose"`
	URL      string `json:"url,omitempty"`
	Icon     string `json:"icon,omitempty"`
	Controls bool   `json:"controls,omitempty"`
}

// LoadServices reads and validates a services.json file.
func LoadServices(path string) ([]Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read services file: %w", err)
	}

	var services []Service
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, svc := range services {
		if svc.Name == "" {
			return nil, fmt.Errorf("service %d: name is required", i)
		}
		if svc.Compose == "" {
			return nil, fmt.Errorf("service %q: compose is required", svc.Name)
		}
	}
	return services, nil
}
