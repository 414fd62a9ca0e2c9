package callsite

import (
	"fmt"
	"strings"
)

// AccessorMode selects how generated fields are exposed.
type AccessorMode int

const (
	// AccessorGetSet renders plain exported fields.
	AccessorGetSet AccessorMode = iota
	// AccessorGetInit additionally renders a constructor taking every field.
	AccessorGetInit
)

// CommentMode selects how much documentation generated types carry.
type CommentMode int

const (
	CommentNone CommentMode = iota
	CommentSummary
	CommentFull
)

// NamingStrategy selects how nested anonymous types are named.
type NamingStrategy int

const (
	// NamingHashedNamespace names every anonymous type after its content hash.
	NamingHashedNamespace NamingStrategy = iota
	// NamingCallerNamespace names nested anonymous types <Parent><Field>.
	NamingCallerNamespace
)

// Options are the per-call rendering options. They never change the schema
// or the rewritten expression, only how artifacts are rendered.
type Options struct {
	RequiredModifierOnProperties bool
	PropertyAccessorMode         AccessorMode
	CommentOutputMode            CommentMode
	RecordInsteadOfClass         bool
	ArrayNullabilityRemoval      bool
	NestedNamingStrategy         NamingStrategy
}

// DefaultOptions returns the options used when a call site sets none.
func DefaultOptions() Options {
	return Options{
		CommentOutputMode:       CommentSummary,
		ArrayNullabilityRemoval: true,
	}
}

var (
	accessorModeNames   = []string{"GetSet", "GetInit"}
	commentModeNames    = []string{"None", "Summary", "Full"}
	namingStrategyNames = []string{"HashedNamespace", "CallerNamespace"}
)

func (m AccessorMode) String() string   { return enumName(accessorModeNames, int(m)) }
func (m CommentMode) String() string    { return enumName(commentModeNames, int(m)) }
func (s NamingStrategy) String() string { return enumName(namingStrategyNames, int(s)) }

// ParseAccessorMode parses "GetSet" or "GetInit", ignoring case.
func ParseAccessorMode(s string) (AccessorMode, error) {
	i, err := parseEnum("property accessor mode", accessorModeNames, s)
	return AccessorMode(i), err
}

// ParseCommentMode parses "None", "Summary" or "Full", ignoring case.
func ParseCommentMode(s string) (CommentMode, error) {
	i, err := parseEnum("comment output mode", commentModeNames, s)
	return CommentMode(i), err
}

// ParseNamingStrategy parses "HashedNamespace" or "CallerNamespace", ignoring case.
func ParseNamingStrategy(s string) (NamingStrategy, error) {
	i, err := parseEnum("nested naming strategy", namingStrategyNames, s)
	return NamingStrategy(i), err
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("unknown(%d)", i)
	}

	return names[i]
}

func parseEnum(what string, names []string, s string) (int, error) {
	for i, n := range names {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return i, nil
		}
	}

	return 0, fmt.Errorf("invalid %s %q (expected one of %s)", what, s, strings.Join(names, ", "))
}
