package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"projection-generator/internal/nest"
)

const defaultOutputFilename = "projections_gen.go"

// LoadFile loads and parses a projection.yaml file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f.Path = path

	return f, nil
}

// Parse parses YAML data into a File and applies defaults.
func Parse(data []byte) (*File, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(&f)

	return &f, nil
}

// Default returns the configuration used when no project file exists.
func Default() *File {
	var f File

	applyDefaults(&f)

	return &f
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}

	if len(f.Packages) == 0 {
		f.Packages = []string{"./..."}
	}

	if f.Output.Filename == "" {
		f.Output.Filename = defaultOutputFilename
	}

	limits := nest.DefaultLimits()

	if f.Analysis.Workers == 0 {
		f.Analysis.Workers = runtime.GOMAXPROCS(0)
	}

	if f.Analysis.MaxDepth == 0 {
		f.Analysis.MaxDepth = limits.MaxDepth
	}

	if f.Analysis.MaxSelfNesting == 0 {
		f.Analysis.MaxSelfNesting = limits.MaxSelfNesting
	}
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// WriteFile writes a File to the given path.
func WriteFile(f *File, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}
