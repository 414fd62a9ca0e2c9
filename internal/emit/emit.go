package emit

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"projection-generator/expr"
	"projection-generator/internal/analyze"
	"projection-generator/internal/callsite"
	"projection-generator/internal/common"
	"projection-generator/internal/diagnostic"
	"projection-generator/internal/nest"
	"projection-generator/internal/schema"
)

// artifactSpace roots the name-based UUIDs of emitted artifacts.
var artifactSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("projection-generator"))

const shortHash = 8

// registry is the per-pass dedup state. It is built by one fold over the
// sorted call sites and dropped with the pass.
type registry struct {
	batch *Batch
	// types maps namespace + dedup key to the assigned type.
	types map[string]*TypeDef
	funcs map[string]*FuncDef
	// taken holds the identifiers already used per namespace.
	taken    map[string]map[string]bool
	concrete map[*schema.Node]*expr.Type
	first    map[*TypeDef]origin
}

// origin is the node a type definition was first seen at.
type origin struct {
	node *schema.Node
	tree *schema.Tree
}

func newRegistry() *registry {
	return &registry{
		batch:    &Batch{},
		types:    make(map[string]*TypeDef),
		funcs:    make(map[string]*FuncDef),
		taken:    make(map[string]map[string]bool),
		concrete: make(map[*schema.Node]*expr.Type),
		first:    make(map[*TypeDef]origin),
	}
}

// Emit folds the analyzed call sites of one batch into artifacts. Warnings
// carried by the results are copied into the batch diagnostics; call sites
// excluded by a naming collision or an invalid tree produce no function.
func Emit(results []*nest.Result) (*Batch, error) {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b *nest.Result) int {
		return callsite.Compare(a.Site, b.Site)
	})

	var nodes []*schema.Node
	for _, res := range sorted {
		nodes = append(nodes, res.Tree.Nodes...)
	}

	if err := schema.ComputeHashes(nodes); err != nil {
		return nil, fmt.Errorf("hashing shapes: %w", err)
	}

	r := newRegistry()

	for _, res := range sorted {
		for _, d := range res.Diagnostics {
			r.batch.Diagnostics.Add(d)
		}
	}

	live := r.excludeCollisions(sorted)
	r.reserve(live)

	exported := exportedShapes(live)
	for _, res := range live {
		r.nameNodes(res, exported)
	}

	for _, t := range r.batch.Types {
		r.fillFields(t)
	}

	for _, res := range live {
		if err := r.emitFunc(res); err != nil {
			r.batch.Diagnostics.Add(err.Diagnostic(res.Site.ID, res.Site.Location))
		}
	}

	return r.batch, nil
}

// excludeCollisions drops every call site that uses an explicit name which
// is constructed with more than one shape in its namespace.
func (r *registry) excludeCollisions(results []*nest.Result) []*nest.Result {
	type use struct {
		res  *nest.Result
		node *schema.Node
	}

	hashes := make(map[string]map[string]bool)
	uses := make(map[string][]use)

	for _, res := range results {
		for _, n := range res.Tree.Nodes {
			m, ok := n.Mode.(callsite.ExplicitNamed)
			if !ok {
				continue
			}

			k := n.Namespace.Path + "." + m.Name
			if hashes[k] == nil {
				hashes[k] = make(map[string]bool)
			}

			hashes[k][n.Hash] = true
			uses[k] = append(uses[k], use{res: res, node: n})
		}
	}

	excluded := make(map[*nest.Result]bool)

	for _, k := range slices.Sorted(maps.Keys(hashes)) {
		if len(hashes[k]) < 2 {
			continue
		}

		for _, u := range uses[k] {
			excluded[u.res] = true

			r.batch.Diagnostics.Add(diagnostic.Diagnostic{
				Severity: diagnostic.DiagnosticError,
				Code:     diagnostic.CodeNamingCollision,
				Message: fmt.Sprintf("type %s is constructed with %d different shapes; every call site using the name is skipped",
					k, len(hashes[k])),
				Location:  u.res.Site.Location,
				CallSite:  u.res.Site.ID,
				FieldPath: u.node.Path(),
			})
		}
	}

	return slices.DeleteFunc(slices.Clone(results), func(res *nest.Result) bool {
		return excluded[res]
	})
}

// reserve marks the declared and explicitly named types of every namespace
// as taken, so synthesized names never shadow them.
func (r *registry) reserve(results []*nest.Result) {
	for _, res := range results {
		ns := res.Site.Namespace.Path
		for name := range res.Site.Declared {
			r.take(ns, name)
		}

		for _, n := range res.Tree.Nodes {
			if m, ok := n.Mode.(callsite.ExplicitNamed); ok {
				r.take(ns, m.Name)
			}
		}
	}
}

func (r *registry) take(ns, name string) {
	if r.taken[ns] == nil {
		r.taken[ns] = make(map[string]bool)
	}

	r.taken[ns][name] = true
}

func (r *registry) isTaken(ns, name string) bool {
	return r.taken[ns][name]
}

// exportedShapes returns the anonymous shapes, by namespace and hash, that
// are reachable from an exported named type. One reachable occurrence
// exports the shape everywhere in the namespace.
func exportedShapes(results []*nest.Result) map[string]bool {
	out := make(map[string]bool)

	var mark func(n *schema.Node)
	mark = func(n *schema.Node) {
		for _, p := range n.Properties {
			c := p.Nested
			if c == nil {
				continue
			}

			if _, ok := c.Mode.(callsite.Anonymous); ok {
				out[anonKey(c)] = true
				mark(c)
			}
		}
	}

	for _, res := range results {
		for _, n := range res.Tree.Nodes {
			if m, ok := n.Mode.(callsite.ExplicitNamed); ok && common.IsExported(m.Name) {
				mark(n)
			}
		}
	}

	return out
}

func anonKey(n *schema.Node) string {
	return n.Namespace.Path + "\x00#" + n.Hash
}

func explicitKey(ns, name string) string {
	return ns + "\x00" + name
}

// nameNodes assigns the concrete type of every node of res, registering new
// type definitions in first-seen order.
func (r *registry) nameNodes(res *nest.Result, exported map[string]bool) {
	ns := res.Site.Namespace

	for _, n := range res.Tree.Nodes {
		switch m := n.Mode.(type) {
		case callsite.PreExisting:
			r.concrete[n] = expr.Struct(m.Type.ID.PkgPath, m.Type.ID.Name)

		case callsite.ExplicitNamed:
			t := r.register(explicitKey(ns.Path, m.Name), n, res, func() *TypeDef {
				return &TypeDef{Name: m.Name, Exported: common.IsExported(m.Name), Explicit: true}
			})
			r.concrete[n] = expr.Shape(ns.Path, t.Name)

		case callsite.Anonymous:
			t := r.register(anonKey(n), n, res, func() *TypeDef {
				exp := exported[anonKey(n)]
				name := r.anonymousName(n, exp, res.Site.Options)
				r.take(ns.Path, name)

				return &TypeDef{Name: name, Exported: exp}
			})
			r.concrete[n] = expr.Shape(ns.Path, t.Name)

		default:
			panic(fmt.Sprintf("emit: unknown mode %T", n.Mode))
		}
	}
}

// register returns the type registered under key, creating it with build on
// first sight.
func (r *registry) register(key string, n *schema.Node, res *nest.Result, build func() *TypeDef) *TypeDef {
	t, ok := r.types[key]
	if !ok {
		t = build()
		t.Namespace = n.Namespace
		t.Hash = n.Hash
		t.Source = n.Source
		t.Options = res.Site.Options
		t.ID = uuid.NewSHA1(artifactSpace, []byte("type\x00"+n.Namespace.Path+"\x00"+t.Name)).String()

		r.types[key] = t
		r.first[t] = origin{node: n, tree: res.Tree}
		r.batch.Types = append(r.batch.Types, t)
	}

	if len(t.Sites) == 0 || t.Sites[len(t.Sites)-1] != res.Site.ID {
		t.Sites = append(t.Sites, res.Site.ID)
	}

	return t
}

// anonymousName synthesizes the name of an anonymous shape. Hashed names are
// projection<hash8>; with the caller-namespace strategy a nested shape that
// is still attached to its parent is named <Parent><Field>. Clashes fall back
// to longer hash suffixes.
func (r *registry) anonymousName(n *schema.Node, exported bool, opts callsite.Options) string {
	ns := n.Namespace.Path
	h8 := n.Hash[:min(shortHash, len(n.Hash))]

	var candidates []string

	if opts.NestedNamingStrategy == callsite.NamingCallerNamespace && n.Parent != nil && !n.Detached {
		if parent := r.concrete[n.Parent]; parent != nil {
			base := parent.Name + common.Export(n.Origin)
			candidates = append(candidates, base, base+"_"+h8)
		}
	}

	candidates = append(candidates, "projection"+h8, "projection"+n.Hash)

	for _, c := range candidates {
		c = casing(c, exported)
		if !r.isTaken(ns, c) {
			return c
		}
	}

	base := casing("projection"+n.Hash, exported)
	for i := 2; ; i++ {
		if c := fmt.Sprintf("%s_%d", base, i); !r.isTaken(ns, c) {
			return c
		}
	}
}

func casing(name string, exported bool) string {
	if exported {
		return common.Export(name)
	}

	return common.Unexport(name)
}

// fillFields builds the fields of t from the node it was first seen at.
func (r *registry) fillFields(t *TypeDef) {
	o := r.first[t]

	t.Fields = make([]FieldDef, 0, len(o.node.Properties))
	for _, p := range o.node.Properties {
		t.Fields = append(t.Fields, FieldDef{
			Name:          p.Name,
			Type:          r.instantiate(o.tree, p.Type),
			Nullable:      p.Nullable,
			EmptyFallback: p.EmptyFallback,
			Source:        p.Source,
		})
	}
}

// instantiate replaces call-site local shape references in t by the concrete
// emitted types.
func (r *registry) instantiate(tree *schema.Tree, t *expr.Type) *expr.Type {
	return expr.MapType(t, func(c *expr.Type) *expr.Type {
		if c.Kind != expr.TypeShape || c.Ref == "" {
			return nil
		}

		n := tree.ByRef(c.Ref)
		if n == nil || r.concrete[n] == nil {
			return nil
		}

		out := *r.concrete[n]
		out.Nullable = c.Nullable

		return &out
	})
}

// emitFunc registers the projection function of res. Call sites sharing a
// binding key in one namespace share one function. A failure excludes only
// this call site.
func (r *registry) emitFunc(res *nest.Result) *diagnostic.Error {
	site := res.Site
	ns := site.Namespace
	key := site.Key()

	if f, ok := r.funcs[explicitKey(ns.Path, key)]; ok {
		f.Sites = append(f.Sites, site.ID)
		return nil
	}

	body := expr.MapTypes(res.Lambda.Body, func(c *expr.Type) *expr.Type {
		if c.Kind != expr.TypeShape || c.Ref == "" {
			return nil
		}

		return r.instantiate(res.Tree, c)
	})

	lambda := expr.NewLambda(res.Lambda.Param, res.Lambda.Source, body)
	if err := expr.Validate(lambda); err != nil {
		return diagnostic.Errorf(diagnostic.CodeInvalidExpressionTree, "%v", err)
	}

	out := r.concrete[res.Tree.Root]

	f := &FuncDef{
		ID:         uuid.NewSHA1(artifactSpace, []byte("func\x00"+ns.Path+"\x00"+key)).String(),
		Name:       r.funcName(ns.Path, res.Lambda.Source, key),
		Key:        key,
		Namespace:  ns,
		CallSite:   site.ID,
		Location:   site.Location,
		Sites:      []string{site.ID},
		Source:     res.Lambda.Source,
		Output:     out,
		OutputName: out.Name,
		Lambda:     lambda,
		Options:    site.Options,
		Selector:   site.Selector,
	}

	for _, c := range site.Captures {
		f.Captures = append(f.Captures, Capture{Name: c.Name, Type: analyze.ExprType(c.Type)})
	}

	r.funcs[explicitKey(ns.Path, key)] = f
	r.batch.Funcs = append(r.batch.Funcs, f)

	return nil
}

// funcName returns select<Source><key8>, or the full key on a clash.
func (r *registry) funcName(ns string, source *expr.Type, key string) string {
	base := "select" + common.Export(source.Name)

	name := base + key[:min(shortHash, len(key))]
	if r.isTaken(ns, name) {
		name = base + key
	}

	r.take(ns, name)

	return name
}
