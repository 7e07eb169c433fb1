package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/openfleet/swarmctl/pkg/scenario"
)

// ScenarioInfo pairs a discovered scenario's directory with its metadata
type ScenarioInfo struct {
	Path     string
	Metadata scenario.Metadata
}

// DiscoverScenarios finds all scenarios under the cmd directory by looking
// for scenario.yaml files
func DiscoverScenarios() ([]ScenarioInfo, error) {
	rootDir, err := findProjectRoot()
	if err != nil {
		return nil, err
	}

	var scenarios []ScenarioInfo
	cmdDir := filepath.Join(rootDir, "cmd")

	err = filepath.Walk(cmdDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.Name() == "scenario.yaml" {
			scInfo, err := loadScenarioMetadata(path)
			if err != nil {
				// Skip broken metadata but keep scanning
				fmt.Printf("Warning: failed to load %s: %v\n", path, err)
				return nil
			}
			scenarios = append(scenarios, *scInfo)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan for scenarios: %w", err)
	}

	return scenarios, nil
}

func loadScenarioMetadata(path string) (*ScenarioInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario metadata: %w", err)
	}

	var meta scenario.Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse scenario metadata: %w", err)
	}

	return &ScenarioInfo{
		Path:     filepath.Dir(path),
		Metadata: meta,
	}, nil
}

// findProjectRoot walks up from the working directory until it finds go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (no go.mod found)")
		}
		dir = parent
	}
}
