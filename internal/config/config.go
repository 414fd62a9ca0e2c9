package config

import (
	"projection-generator/internal/callsite"
	"projection-generator/internal/nest"
)

// DefaultFilename is the projection.yaml file name looked up by the CLI.
const DefaultFilename = "projection.yaml"

// File is the root structure of a projection.yaml project file.
type File struct {
	Version   string         `yaml:"version"`
	Packages  []string       `yaml:"packages,omitempty"`
	Output    Output         `yaml:"output"`
	Defaults  OptionsSpec    `yaml:"defaults,omitempty"`
	Analysis  Analysis       `yaml:"analysis"`
	CallSites []CallSiteSpec `yaml:"callsites,omitempty"`

	// Path is the file the configuration was loaded from; empty when parsed
	// from memory.
	Path string `yaml:"-"`
}

// Output configures where artifacts are written.
type Output struct {
	// Filename is the generated file written into every caller package.
	Filename string `yaml:"filename"`
	// Manifest is an optional path for the JSON artifact manifest.
	Manifest string `yaml:"manifest,omitempty"`
}

// Analysis configures the per-call-site pipeline.
type Analysis struct {
	Workers        int `yaml:"workers"`
	MaxDepth       int `yaml:"max_depth"`
	MaxSelfNesting int `yaml:"max_self_nesting"`
}

// Limits returns the nesting limits of a.
func (a Analysis) Limits() nest.Limits {
	return nest.Limits{MaxDepth: a.MaxDepth, MaxSelfNesting: a.MaxSelfNesting}
}

// OptionsSpec overrides call-site options. Unset keys inherit.
type OptionsSpec struct {
	RequiredModifierOnProperties *bool           `yaml:"required_modifier_on_properties,omitempty"`
	PropertyAccessorMode         *AccessorMode   `yaml:"property_accessor_mode,omitempty"`
	CommentOutputMode            *CommentMode    `yaml:"comment_output_mode,omitempty"`
	RecordInsteadOfClass         *bool           `yaml:"record_instead_of_class,omitempty"`
	ArrayNullabilityRemoval      *bool           `yaml:"array_nullability_removal,omitempty"`
	NestedNamingStrategy         *NamingStrategy `yaml:"nested_naming_strategy,omitempty"`
}

// Apply returns base with every key set in s overridden.
func (s OptionsSpec) Apply(base callsite.Options) callsite.Options {
	if s.RequiredModifierOnProperties != nil {
		base.RequiredModifierOnProperties = *s.RequiredModifierOnProperties
	}

	if s.PropertyAccessorMode != nil {
		base.PropertyAccessorMode = s.PropertyAccessorMode.Value
	}

	if s.CommentOutputMode != nil {
		base.CommentOutputMode = s.CommentOutputMode.Value
	}

	if s.RecordInsteadOfClass != nil {
		base.RecordInsteadOfClass = *s.RecordInsteadOfClass
	}

	if s.ArrayNullabilityRemoval != nil {
		base.ArrayNullabilityRemoval = *s.ArrayNullabilityRemoval
	}

	if s.NestedNamingStrategy != nil {
		base.NestedNamingStrategy = s.NestedNamingStrategy.Value
	}

	return base
}

// CallSiteSpec declares a call site that is not discovered from Go code.
type CallSiteSpec struct {
	// ID identifies the entry in diagnostics and generated documentation.
	ID string `yaml:"id"`
	// Package is the import path of the package receiving the generated code.
	Package string `yaml:"package"`
	// Source is the qualified source type, e.g. "example.com/store.Order".
	Source string `yaml:"source"`
	// Output names the result type. A name already declared in Package
	// selects the pre-existing mode; empty means anonymous.
	Output   string      `yaml:"output,omitempty"`
	Selector string      `yaml:"selector"`
	Captures []Capture   `yaml:"captures,omitempty"`
	Options  OptionsSpec `yaml:"options,omitempty"`

	// Line is the line of the entry in the project file.
	Line int `yaml:"-"`
}

// Capture declares a captured variable and its qualified type.
type Capture struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Options returns the effective options of c: built-in defaults, then the
// file defaults, then the entry's own overrides.
func (f *File) Options(c *CallSiteSpec) callsite.Options {
	opts := f.Defaults.Apply(callsite.DefaultOptions())
	if c != nil {
		opts = c.Options.Apply(opts)
	}

	return opts
}
