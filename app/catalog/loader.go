package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of source catalog definitions
type Loader struct {
	sourcesDir string
}

// NewLoader creates a new catalog loader
func NewLoader(sourcesDir string) *Loader {
	return &Loader{sourcesDir: sourcesDir}
}

// LoadAll loads all YAML source definitions from the sources directory.
// The slug defaults to the filename without extension.
func (l *Loader) LoadAll() ([]SourceConfig, error) {
	var configs []SourceConfig

	if _, err := os.Stat(l.sourcesDir); os.IsNotExist(err) {
		return configs, nil
	}

	files, err := filepath.Glob(filepath.Join(l.sourcesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.sourcesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(config); err != nil {
			return nil, fmt.Errorf("invalid source definition %s: %w", file, err)
		}

		configs = append(configs, *config)
		slog.Debug("Loaded source definition", "file", file, "slug", config.Slug)
	}

	return configs, nil
}

func (l *Loader) loadFile(path string) (*SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config SourceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Slug == "" {
		base := filepath.Base(path)
		config.Slug = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if config.Name == "" {
		config.Name = config.Slug
	}

	return &config, nil
}

func (l *Loader) validate(config *SourceConfig) error {
	if config.AdapterID == "" {
		return fmt.Errorf("adapter is required")
	}
	if config.URL == "" {
		return fmt.Errorf("url is required")
	}
	return nil
}
