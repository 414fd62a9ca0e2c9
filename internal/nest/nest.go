package nest

import (
	"errors"
	"fmt"

	"projection-generator/expr"
	"projection-generator/internal/bind"
	"projection-generator/internal/callsite"
	"projection-generator/internal/diagnostic"
	"projection-generator/internal/nullsafe"
	"projection-generator/internal/schema"
	"projection-generator/internal/selector"
)

// Limits bound the nesting of shapes within one call site.
type Limits struct {
	// MaxDepth is the deepest nesting level below the root.
	MaxDepth int
	// MaxSelfNesting is how often one source member may be projected along a
	// single path, e.g. Category.Parent in a category tree.
	MaxSelfNesting int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxDepth: 6, MaxSelfNesting: 3}
}

// Result is the analysis of one call site.
type Result struct {
	Site *callsite.CallSite
	// Lambda is the rewritten selector. Its shape types still carry call-site
	// local references; the emitter names them.
	Lambda *expr.Lambda
	Tree   *schema.Tree
	// Diagnostics holds the warnings raised for the call site.
	Diagnostics []diagnostic.Diagnostic
}

// Analyzer analyzes call sites against one type graph.
type Analyzer struct {
	types  bind.Types
	limits Limits
}

// New returns an Analyzer. Zero limits are replaced by the defaults.
func New(types bind.Types, limits Limits) *Analyzer {
	def := DefaultLimits()
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = def.MaxDepth
	}

	if limits.MaxSelfNesting <= 0 {
		limits.MaxSelfNesting = def.MaxSelfNesting
	}

	return &Analyzer{types: types, limits: limits}
}

// Analyze compiles site up to its schema tree. Domain failures are returned
// as *diagnostic.Error.
func (a *Analyzer) Analyze(site *callsite.CallSite) (*Result, error) {
	if err := site.Validate(); err != nil {
		return nil, err
	}

	m, err := selector.BuildModel(site.Selector)
	if err != nil {
		return nil, err
	}

	bound, err := bind.Bind(a.types, site, m)
	if err != nil {
		return nil, err
	}

	fields := make([]expr.Field, 0, len(bound.Properties))
	for _, p := range bound.Properties {
		r, err := nullsafe.Rewrite(p.Node)
		if err != nil {
			var de *diagnostic.Error
			if errors.As(err, &de) {
				return nil, de.Under(p.Name)
			}

			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}

		fields = append(fields, expr.F(p.Name, r.Node))
	}

	body := expr.New(bound.Root.Type, fields...)

	tree, err := schema.Infer(site, bound, body)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Site:   site,
		Lambda: expr.NewLambda(bound.Lambda.Param, bound.Lambda.Source, body),
		Tree:   tree,
	}

	res.Diagnostics = a.enforceLimits(site, tree)

	return res, nil
}

// enforceLimits detaches nodes nested deeper than allowed. Depth and
// self-nesting are counted from the nearest detached ancestor, so a detached
// node starts a fresh budget for its own subtree.
func (a *Analyzer) enforceLimits(site *callsite.CallSite, tree *schema.Tree) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic

	for _, n := range tree.Nodes {
		if n == tree.Root || n.IsPreExisting() {
			continue
		}

		anchor := tree.Root
		seen := 1
		for p := n.Parent; p != nil; p = p.Parent {
			if p.Key == n.Key {
				seen++
			}

			if p.Detached {
				anchor = p
				break
			}
		}

		depth := n.Depth - anchor.Depth

		var reason string
		switch {
		case depth > a.limits.MaxDepth:
			reason = fmt.Sprintf("nesting depth %d exceeds %d", depth, a.limits.MaxDepth)
		case seen > a.limits.MaxSelfNesting:
			reason = fmt.Sprintf("%s is projected %d times along one path (limit %d)", n.Key, seen, a.limits.MaxSelfNesting)
		default:
			continue
		}

		// A detached shape becomes its own top-level anonymous type, even
		// when the selector named it.
		n.Detached = true
		n.Mode = callsite.Anonymous{}

		diags = append(diags, diagnostic.Diagnostic{
			Severity:  diagnostic.DiagnosticWarning,
			Code:      diagnostic.CodeUnresolvedNestedReference,
			Message:   reason + "; the shape is emitted as a separate top-level type",
			Location:  site.Location,
			CallSite:  site.ID,
			FieldPath: n.Path(),
		})
	}

	return diags
}
