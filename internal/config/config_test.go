package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projection-generator/internal/callsite"
	"projection-generator/internal/diagnostic"
)

const projectYAML = `
version: "1"
packages: ["./reports/...", "./api"]
output:
  filename: dto_gen.go
  manifest: build/projections.json
defaults:
  comment_output_mode: full
  property_accessor_mode: GetInit
analysis:
  workers: 2
  max_depth: 4
callsites:
  - id: orders-summary
    package: example.com/app/reports
    source: example.com/app/store.Order
    output: OrderSummary
    selector: "o => new { o.ID }"
    captures:
      - name: min
        type: float64
    options:
      record_instead_of_class: true
      comment_output_mode: None
  - id: buyers
    package: example.com/app/reports
    source: example.com/app/store.Customer
    selector: "c => new { c.Name }"
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(projectYAML))
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, "1", f.Version)
	assert.Equal(t, []string{"./reports/...", "./api"}, f.Packages)
	assert.Equal(t, "dto_gen.go", f.Output.Filename)
	assert.Equal(t, "build/projections.json", f.Output.Manifest)

	assert.Equal(t, 2, f.Analysis.Workers)
	assert.Equal(t, 4, f.Analysis.MaxDepth)
	// Unset limits fall back to the nesting defaults.
	assert.Equal(t, 3, f.Analysis.MaxSelfNesting)

	require.Len(t, f.CallSites, 2)

	c := f.CallSites[0]
	assert.Equal(t, "orders-summary", c.ID)
	assert.Equal(t, "example.com/app/store.Order", c.Source)
	assert.Equal(t, "OrderSummary", c.Output)
	assert.Equal(t, []Capture{{Name: "min", Type: "float64"}}, c.Captures)
	assert.Equal(t, 14, c.Line)
	assert.Equal(t, 25, f.CallSites[1].Line)
}

func TestParse_Defaults(t *testing.T) {
	f, err := Parse([]byte("version: \"1\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "1", f.Version)
	assert.Equal(t, []string{"./..."}, f.Packages)
	assert.Equal(t, "projections_gen.go", f.Output.Filename)
	assert.Empty(t, f.Output.Manifest)
	assert.Equal(t, runtime.GOMAXPROCS(0), f.Analysis.Workers)
	assert.Equal(t, 6, f.Analysis.MaxDepth)
	assert.Equal(t, 3, f.Analysis.MaxSelfNesting)

	assert.Equal(t, callsite.DefaultOptions(), f.Options(nil))
	assert.Equal(t, Default(), f)
}

func TestParse_InvalidEnum(t *testing.T) {
	_, err := Parse([]byte("defaults:\n  comment_output_mode: Verbose\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), `invalid comment output mode "Verbose"`)

	_, err = Parse([]byte("defaults:\n  nested_naming_strategy: [a, b]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a string")
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("version: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestOptions_Layering(t *testing.T) {
	f, err := Parse([]byte(projectYAML))
	require.NoError(t, err)

	base := f.Options(nil)
	assert.Equal(t, callsite.CommentFull, base.CommentOutputMode)
	assert.Equal(t, callsite.AccessorGetInit, base.PropertyAccessorMode)
	assert.True(t, base.ArrayNullabilityRemoval, "inherited from the built-in defaults")
	assert.False(t, base.RecordInsteadOfClass)

	site := f.Options(&f.CallSites[0])
	assert.Equal(t, callsite.CommentNone, site.CommentOutputMode)
	assert.Equal(t, callsite.AccessorGetInit, site.PropertyAccessorMode)
	assert.True(t, site.RecordInsteadOfClass)

	assert.Equal(t, base, f.Options(&f.CallSites[1]))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(projectYAML), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)
	assert.Len(t, f.CallSites, 2)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestWriteFile_RoundTrip(t *testing.T) {
	f, err := Parse([]byte(projectYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, WriteFile(f, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "comment_output_mode: Full")
	assert.Contains(t, string(data), "property_accessor_mode: GetInit")

	back, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, f.Options(nil), back.Options(nil))
	assert.Equal(t, f.Options(&f.CallSites[0]), back.Options(&back.CallSites[0]))
	assert.Equal(t, f.Analysis, back.Analysis)
}

func TestValidate(t *testing.T) {
	f, err := Parse([]byte(projectYAML))
	require.NoError(t, err)

	diags := Validate(f)
	assert.False(t, diags.HasErrors(), "%v", diags.All())
}

func TestValidate_Errors(t *testing.T) {
	src := `
version: "2"
output:
  filename: gen/out.go
analysis:
  workers: -1
callsites:
  - id: a
    package: example.com/app
    source: Order
    output: "not valid"
    selector: "  "
    captures:
      - name: x
        type: int
      - name: x
        type: "bad type"
  - id: a
    source: example.com/app/store.Order
    selector: "o => o"
`

	f, err := Parse([]byte(src))
	require.NoError(t, err)

	f.Path = "projection.yaml"
	diags := Validate(f)
	require.True(t, diags.HasErrors())

	var paths []string
	for _, d := range diags.All() {
		assert.Equal(t, diagnostic.CodeInvalidConfig, d.Code)
		assert.Equal(t, "projection.yaml", d.Location.File)
		paths = append(paths, d.FieldPath)
	}

	assert.ElementsMatch(t, []string{
		"version",
		"output.filename",
		"analysis.workers",
		"callsites[0].source",
		"callsites[0].output",
		"callsites[0].selector",
		"callsites[0].captures[1].name",
		"callsites[0].captures[1].type",
		"callsites[1].id",
		"callsites[1].package",
	}, paths)
}

func TestValidate_Nil(t *testing.T) {
	diags := Validate(nil)
	require.Len(t, diags.Errors, 1)
	assert.Equal(t, diagnostic.CodeInvalidConfig, diags.Errors[0].Code)
}

func TestSplitQualified(t *testing.T) {
	tests := []struct {
		in       string
		pkg      string
		name     string
		wantOkay bool
	}{
		{"example.com/app/store.Order", "example.com/app/store", "Order", true},
		{"gopkg.in/yaml.v3.Node", "gopkg.in/yaml.v3", "Node", true},
		{"time.Time", "time", "Time", true},
		{"int", "", "int", true},
		{"example.com/app/store", "", "", false},
		{"store.", "", "", false},
		{"bad type", "", "bad type", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			pkg, name, ok := SplitQualified(tt.in)
			assert.Equal(t, tt.wantOkay, ok)

			if ok {
				assert.Equal(t, tt.pkg, pkg)
				assert.Equal(t, tt.name, name)
			}
		})
	}
}
