package expr

import (
	"errors"
	"fmt"
)

// ValidationError describes a tree that a backend must not receive.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "invalid expression tree: " + e.Reason
	}

	return fmt.Sprintf("invalid expression tree at %s: %s", e.Path, e.Reason)
}

// Validate checks that l is a well-formed, backend-ready tree: no
// null-propagating links, no coalesce nodes, every collection fallback is a
// typed Empty, and every shape has been given a name.
func Validate(l *Lambda) error {
	if l == nil || l.Body == nil {
		return &ValidationError{Reason: "missing body"}
	}

	if l.Param == "" {
		return &ValidationError{Reason: "missing parameter"}
	}

	return validateNode(l.Body, "body", true)
}

// ValidateRewritten is Validate without the named-shape requirement. It is
// the post-condition of the null-safety rewrite.
func ValidateRewritten(n *Node) error {
	return validateNode(n, "body", false)
}

func validateNode(n *Node, path string, named bool) error {
	if n == nil {
		return &ValidationError{Path: path, Reason: "nil node"}
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)})
	}

	switch n.Kind {
	case KindInvalid:
		fail("invalid node kind")
	case KindCoalesce:
		fail("coalesce was not rewritten")
	case KindMember, KindCall:
		if n.Safe {
			fail("null-propagating link %q was not rewritten", n.Name)
		}

		if n.Kind == KindMember && n.Target == nil {
			fail("member %q has no target", n.Name)
		}
	case KindEmpty:
		if !n.Type.IsCollection() {
			fail("empty sequence has non-collection type %s", n.Type)
		}
	case KindUnary, KindBinary:
		if n.Op == "" {
			fail("operator missing")
		}
	case KindCond:
		if n.Test == nil || n.Then == nil || n.Else == nil {
			fail("conditional is incomplete")
		}
	case KindNew:
		if named && !namedConstruction(n.Type) {
			fail("object construction has no named type")
		}
	}

	for i, c := range n.Children() {
		if err := validateNode(c, fmt.Sprintf("%s.%s[%d]", path, n.Kind, i), named); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// namedConstruction reports whether t names the type a New node builds:
// a generated shape or a declared struct.
func namedConstruction(t *Type) bool {
	if t != nil && t.Kind == TypeStruct {
		return t.Name != ""
	}

	s := t.ShapeRoot()

	return s != nil && s.Name != ""
}
