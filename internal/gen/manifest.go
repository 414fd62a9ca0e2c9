package gen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"projection-generator/internal/diagnostic"
	"projection-generator/internal/emit"
)

// ManifestFilename is the default name of the artifact manifest.
const ManifestFilename = "projections.json"

// Manifest lists every artifact of one generation pass.
type Manifest struct {
	Types       []*emit.TypeDef         `json:"types"`
	Funcs       []*emit.FuncDef         `json:"funcs"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics,omitempty"`
}

// NewManifest collects the artifacts and diagnostics of b.
func NewManifest(b *emit.Batch) *Manifest {
	m := &Manifest{
		Types:       b.Types,
		Funcs:       b.Funcs,
		Diagnostics: b.Diagnostics.All(),
	}

	if m.Types == nil {
		m.Types = []*emit.TypeDef{}
	}

	if m.Funcs == nil {
		m.Funcs = []*emit.FuncDef{}
	}

	return m
}

// Encode returns the manifest as indented JSON.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}

	return append(data, '\n'), nil
}

// WriteManifest encodes the manifest of b to path.
func WriteManifest(b *emit.Batch, path string) error {
	data, err := NewManifest(b).Encode()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}

	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}

	return nil
}
