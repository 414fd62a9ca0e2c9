package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"projection-generator/internal/callsite"
)

// AccessorMode is a callsite.AccessorMode spelled by name in YAML.
type AccessorMode struct{ Value callsite.AccessorMode }

// CommentMode is a callsite.CommentMode spelled by name in YAML.
type CommentMode struct{ Value callsite.CommentMode }

// NamingStrategy is a callsite.NamingStrategy spelled by name in YAML.
type NamingStrategy struct{ Value callsite.NamingStrategy }

// UnmarshalYAML accepts "GetSet" or "GetInit".
func (m *AccessorMode) UnmarshalYAML(node *yaml.Node) error {
	s, err := scalar(node)
	if err != nil {
		return err
	}

	m.Value, err = callsite.ParseAccessorMode(s)

	return lineError(node, err)
}

// MarshalYAML implements yaml.Marshaler.
func (m AccessorMode) MarshalYAML() (any, error) { return m.Value.String(), nil }

// UnmarshalYAML accepts "None", "Summary" or "Full".
func (m *CommentMode) UnmarshalYAML(node *yaml.Node) error {
	s, err := scalar(node)
	if err != nil {
		return err
	}

	m.Value, err = callsite.ParseCommentMode(s)

	return lineError(node, err)
}

// MarshalYAML implements yaml.Marshaler.
func (m CommentMode) MarshalYAML() (any, error) { return m.Value.String(), nil }

// UnmarshalYAML accepts "HashedNamespace" or "CallerNamespace".
func (s *NamingStrategy) UnmarshalYAML(node *yaml.Node) error {
	v, err := scalar(node)
	if err != nil {
		return err
	}

	s.Value, err = callsite.ParseNamingStrategy(v)

	return lineError(node, err)
}

// MarshalYAML implements yaml.Marshaler.
func (s NamingStrategy) MarshalYAML() (any, error) { return s.Value.String(), nil }

// UnmarshalYAML records the line of the entry.
func (c *CallSiteSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain CallSiteSpec

	if err := node.Decode((*plain)(c)); err != nil {
		return err
	}

	c.Line = node.Line

	return nil
}

func scalar(node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: expected a string, got %v", node.Line, node.Kind)
	}

	return node.Value, nil
}

func lineError(node *yaml.Node, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("line %d: %w", node.Line, err)
}
