package match

import (
	"fmt"
	"go/types"

	"projection-generator/expr"
)

// TypeCompatibility represents the level of compatibility between two types.
type TypeCompatibility int

const (
	// TypeIncompatible means the types cannot be converted.
	TypeIncompatible TypeCompatibility = iota
	// TypeConvertible means types are convertible using Go's type conversion,
	// which a generated assignment does not perform.
	TypeConvertible
	// TypeAssignable means the value can be directly stored in the target,
	// including lifting a non-null value into a nullable field.
	TypeAssignable
	// TypeIdentical means the types are exactly the same.
	TypeIdentical
)

const (
	VerdictIdentical    = "identical"
	VerdictAssignable   = "assignable"
	VerdictConvertible  = "convertible"
	VerdictIncompatible = "incompatible"
)

// String returns a human-readable name for the compatibility level.
func (c TypeCompatibility) String() string {
	switch c {
	case TypeIdentical:
		return VerdictIdentical
	case TypeAssignable:
		return VerdictAssignable
	case TypeConvertible:
		return VerdictConvertible
	case TypeIncompatible:
		return VerdictIncompatible
	default:
		return "unknown"
	}
}

// Score returns a numeric score for sorting (higher is better).
func (c TypeCompatibility) Score() int {
	return int(c)
}

// OK reports whether a value of the source type may be stored as is.
func (c TypeCompatibility) OK() bool {
	return c >= TypeAssignable
}

// TypeCompatibilityResult contains detailed information about type compatibility.
type TypeCompatibilityResult struct {
	Compatibility TypeCompatibility
	Reason        string // Human-readable explanation
	SourceType    string // String representation of source type
	TargetType    string // String representation of target type
}

// Compatible checks whether an inferred value of type value can be stored in a
// declared member of type declared.
//
// Nullability is directional: a non-null value may be stored in a nullable
// member, a nullable value may not be stored in a non-null one. Numeric
// widening is not applied; Go requires an explicit conversion for it.
func Compatible(value, declared *expr.Type) TypeCompatibilityResult {
	res := TypeCompatibilityResult{
		SourceType: value.String(),
		TargetType: declared.String(),
	}

	res.Compatibility, res.Reason = compatible(value, declared)

	return res
}

func compatible(value, declared *expr.Type) (TypeCompatibility, string) {
	if declared == nil {
		return TypeIncompatible, "declared type is unknown"
	}

	if value == nil {
		// An untyped null literal.
		if declared.Nullable || declared.IsCollection() {
			return TypeAssignable, "null is assignable to a nullable member"
		}

		return TypeIncompatible, "null is not assignable to a non-null member"
	}

	if value.Kind != declared.Kind && !(isStructLike(value) && isStructLike(declared)) {
		if value.Kind == expr.TypeBasic && declared.Kind == expr.TypeNamed ||
			value.Kind == expr.TypeNamed && declared.Kind == expr.TypeBasic {
			return TypeConvertible, "named and basic types need a conversion"
		}

		return TypeIncompatible, fmt.Sprintf("%s value cannot be stored in a %s member", value.Kind, declared.Kind)
	}

	switch value.Kind {
	case expr.TypeSlice:
		c, reason := compatible(value.Elem, declared.Elem)
		return elemCap(c), "element: " + reason
	case expr.TypeMap:
		kc, _ := compatible(value.Key, declared.Key)
		ec, reason := compatible(value.Elem, declared.Elem)
		if kc != TypeIdentical {
			return TypeIncompatible, "map keys differ"
		}

		return elemCap(ec), "element: " + reason
	}

	if value.Pkg != declared.Pkg || value.Name != declared.Name {
		if value.IsNumeric() && declared.IsNumeric() {
			return TypeConvertible, "numeric types differ"
		}

		return TypeIncompatible, fmt.Sprintf("%s is not %s", expr.NonNull(value), expr.NonNull(declared))
	}

	switch {
	case value.Nullable == declared.Nullable:
		return TypeIdentical, "types are identical"
	case declared.Nullable:
		return TypeAssignable, "non-null value lifts into a nullable member"
	default:
		return TypeIncompatible, "value may be null but the member is not nullable"
	}
}

// Element compatibility must be exact: []T is not assignable to []*T in Go.
func elemCap(c TypeCompatibility) TypeCompatibility {
	if c == TypeIdentical {
		return TypeIdentical
	}

	return TypeIncompatible
}

func isStructLike(t *expr.Type) bool {
	return t.Kind == expr.TypeStruct || t.Kind == expr.TypeShape
}

// ScoreTypeCompatibility classifies passing a Go value of type source where
// target is expected, using the go/types assignability rules.
func ScoreTypeCompatibility(source, target types.Type) TypeCompatibilityResult {
	res := TypeCompatibilityResult{
		SourceType: types.TypeString(source, qualifier),
		TargetType: types.TypeString(target, qualifier),
	}

	switch {
	case types.Identical(source, target):
		res.Compatibility, res.Reason = TypeIdentical, "types are identical"
	case types.AssignableTo(source, target):
		res.Compatibility, res.Reason = TypeAssignable, "value is assignable"
	case types.ConvertibleTo(source, target):
		res.Compatibility, res.Reason = TypeConvertible, "value needs a conversion"
	default:
		res.Compatibility, res.Reason = TypeIncompatible, "types are unrelated"
	}

	return res
}

// qualifier prints types as "store.Order" rather than with the full path.
func qualifier(p *types.Package) string {
	return p.Name()
}
