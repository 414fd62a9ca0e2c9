package gen

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projection-generator/expr"
	"projection-generator/internal/analyze"
	"projection-generator/internal/callsite"
	"projection-generator/internal/diagnostic"
	"projection-generator/internal/emit"
	"projection-generator/internal/nest"
)

const (
	storePkg     = "projection-generator/store"
	warehousePkg = "projection-generator/warehouse"
	siteID       = warehousePkg + "/orders.go:12:9"
)

var (
	warehouse = callsite.Namespace{Path: warehousePkg, Package: "warehouse"}
	order     = expr.Struct(storePkg, "Order")
	orderItem = expr.Struct(storePkg, "OrderItem")
	customer  = expr.Struct(storePkg, "Customer")
)

// orderBatch is a hand-built batch covering every node kind the rewriter
// produces for a typical selector.
func orderBatch() *emit.Batch {
	full := callsite.DefaultOptions()
	full.CommentOutputMode = callsite.CommentFull
	full.PropertyAccessorMode = callsite.AccessorGetInit
	full.ArrayNullabilityRemoval = false

	record := callsite.DefaultOptions()
	record.CommentOutputMode = callsite.CommentNone
	record.RecordInsteadOfClass = true

	dto := expr.Shape(warehousePkg, "OrderDto")
	line := expr.Shape(warehousePkg, "Projectionab12cd34")
	row := expr.Struct(warehousePkg, "OrderRow")

	o := expr.Param("o", order)
	i := expr.Param("i", orderItem)
	cust := expr.Member(o, "Customer", expr.Nullable(customer))
	items := expr.Member(o, "Items", expr.SliceOf(orderItem))
	lines := expr.SliceOf(line)

	selectLines := expr.Call(items, "Select", lines, expr.Fn([]string{"i"}, expr.New(line,
		expr.F("Name", expr.Member(i, "Name", expr.Basic("string"))),
		expr.F("Quantity", expr.Member(i, "Quantity", expr.Basic("int"))),
	)))

	body := expr.New(dto,
		expr.F("ID", expr.Member(o, "ID", expr.Basic("int64"))),
		expr.F("Buyer", expr.Cond(expr.NotNil(cust),
			expr.Member(cust, "FullName", expr.Basic("string")),
			expr.Null(expr.Basic("string")),
			expr.Nullable(expr.Basic("string")))),
		expr.F("Lines", expr.Cond(expr.NotNil(items), selectLines, expr.Empty(lines), lines)),
		expr.F("Status", expr.Member(o, "Status", expr.Named(storePkg, "OrderStatus"))),
	)

	return &emit.Batch{
		Types: []*emit.TypeDef{
			{
				Namespace: warehouse,
				Name:      "OrderDto",
				Exported:  true,
				Explicit:  true,
				Source:    order,
				Options:   full,
				Sites:     []string{siteID},
				Fields: []emit.FieldDef{
					{Name: "ID", Type: expr.Basic("int64"), Source: "o.ID"},
					{Name: "Buyer", Type: expr.Nullable(expr.Basic("string")), Nullable: true, Source: "o.Customer?.FullName"},
					{
						Name:          "Lines",
						Type:          lines,
						EmptyFallback: true,
						Source:        "o.Items != null\n\t? o.Items.Select(i => new { i.Name, i.Quantity })\n\t: []",
					},
					{Name: "Status", Type: expr.Named(storePkg, "OrderStatus"), Source: "o.Status"},
				},
			},
			{
				Namespace: warehouse,
				Name:      "Projectionab12cd34",
				Exported:  true,
				Source:    orderItem,
				Options:   callsite.DefaultOptions(),
				Sites:     []string{siteID},
				Fields: []emit.FieldDef{
					{Name: "Name", Type: expr.Basic("string")},
					{Name: "Quantity", Type: expr.Basic("int")},
				},
			},
		},
		Funcs: []*emit.FuncDef{
			{
				Name:       "selectOrder1a2b3c4d",
				Key:        "1a2b3c4d5e6f7a8b",
				Namespace:  warehouse,
				CallSite:   siteID,
				Sites:      []string{siteID},
				Source:     order,
				Output:     dto,
				OutputName: "OrderDto",
				Lambda:     expr.NewLambda("o", order, body),
				Options:    full,
				Selector: `o => new {
	o.ID,
	Buyer = o.Customer?.FullName,
	Lines = o.Items != null ? o.Items.Select(i => new { i.Name, i.Quantity }) : [],
	o.Status
}`,
			},
			{
				Name:       "selectOrder9f8e7d6c",
				Key:        "9f8e7d6c5b4a3928",
				Namespace:  warehouse,
				CallSite:   warehousePkg + "/rows.go:3:9",
				Sites:      []string{warehousePkg + "/rows.go:3:9", warehousePkg + "/rows.go:8:9"},
				Source:     order,
				Output:     row,
				OutputName: "OrderRow",
				Lambda:     expr.NewLambda("o", order, expr.New(row, expr.F("ID", expr.Member(o, "ID", expr.Basic("int64"))))),
				Options:    record,
				Selector:   `o => new { o.ID }`,
			},
		},
	}
}

func generate(t *testing.T, b *emit.Batch) GeneratedFile {
	t.Helper()

	files, err := NewGenerator(GeneratorConfig{}).Generate(b)
	require.NoError(t, err)
	require.Len(t, files, 1)

	return files[0]
}

func TestGenerate_Golden(t *testing.T) {
	file := generate(t, orderBatch())

	assert.Equal(t, DefaultFilename, file.Filename)
	assert.Equal(t, warehousePkg, file.Package)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "warehouse", file.Content)
}

func TestGenerate_Deterministic(t *testing.T) {
	first := generate(t, orderBatch())
	second := generate(t, orderBatch())

	assert.Equal(t, string(first.Content), string(second.Content))
}

// scalarBatch has one anonymous type with a nullable member.
func scalarBatch(opts callsite.Options) *emit.Batch {
	shape := expr.Shape(warehousePkg, "projection5e6f7a8b")
	o := expr.Param("o", order)
	notes := expr.Member(o, "Notes", expr.Nullable(expr.Basic("string")))

	return &emit.Batch{
		Types: []*emit.TypeDef{{
			Namespace: warehouse,
			Name:      "projection5e6f7a8b",
			Source:    order,
			Options:   opts,
			Sites:     []string{siteID},
			Fields: []emit.FieldDef{
				{Name: "Type", Type: expr.Basic("string"), Source: "o.Number"},
				{Name: "Notes", Type: notes.Type, Nullable: true, Source: "o.Notes"},
			},
		}},
		Funcs: []*emit.FuncDef{{
			Name:       "selectOrder5e6f7a8b",
			Key:        "5e6f7a8b",
			Namespace:  warehouse,
			CallSite:   siteID,
			Sites:      []string{siteID},
			Source:     order,
			Output:     shape,
			OutputName: "projection5e6f7a8b",
			Lambda: expr.NewLambda("o", order, expr.New(shape,
				expr.F("Type", expr.Member(o, "Number", expr.Basic("string"))),
				expr.F("Notes", notes),
			)),
			Options:  opts,
			Selector: `o => new { Type = o.Number, o.Notes }`,
		}},
	}
}

func TestGenerate_Options(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*callsite.Options)
		contains []string
		excludes []string
	}{
		{
			name: "defaults",
			contains: []string{
				"// projection5e6f7a8b is a projection of store.Order.",
				"`json:\"notes,omitempty\"`",
				"`json:\"type\"`",
				"return &projection5e6f7a8b{}",
			},
			excludes: []string{"Source: o.Notes", "func newProjection5e6f7a8b"},
		},
		{
			name:     "required members",
			modify:   func(o *callsite.Options) { o.RequiredModifierOnProperties = true },
			contains: []string{"`json:\"notes\"`"},
			excludes: []string{"omitempty"},
		},
		{
			name:     "no comments",
			modify:   func(o *callsite.Options) { o.CommentOutputMode = callsite.CommentNone },
			excludes: []string{"is a projection of", "builds the projection at"},
		},
		{
			name:   "full comments",
			modify: func(o *callsite.Options) { o.CommentOutputMode = callsite.CommentFull },
			contains: []string{
				"// Source: o.Notes",
				"// Call sites: " + siteID + ".",
				"// Selector: o => new { Type = o.Number, o.Notes }",
			},
		},
		{
			name:   "init accessors",
			modify: func(o *callsite.Options) { o.PropertyAccessorMode = callsite.AccessorGetInit },
			contains: []string{
				"func newProjection5e6f7a8b(typeValue string, notes *string) *projection5e6f7a8b {",
				"Type:  typeValue,",
			},
		},
		{
			name: "record",
			modify: func(o *callsite.Options) {
				o.RecordInsteadOfClass = true
				o.PropertyAccessorMode = callsite.AccessorGetInit
			},
			contains: []string{
				"func newProjection5e6f7a8b(typeValue string, notes *string) projection5e6f7a8b {",
				"return projection5e6f7a8b{\n",
				"return projection5e6f7a8b{} },",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := callsite.DefaultOptions()
			if tt.modify != nil {
				tt.modify(&opts)
			}

			content := string(generate(t, scalarBatch(opts)).Content)

			for _, s := range tt.contains {
				assert.Contains(t, content, s)
			}

			for _, s := range tt.excludes {
				assert.NotContains(t, content, s)
			}
		})
	}
}

func TestGenerate_ImportAliases(t *testing.T) {
	b := scalarBatch(callsite.DefaultOptions())
	b.Types[0].Fields = append(b.Types[0].Fields,
		emit.FieldDef{Name: "A", Type: expr.Named("example.com/a/model", "Kind")},
		emit.FieldDef{Name: "B", Type: expr.Named("example.com/b/model", "Kind")},
		emit.FieldDef{Name: "C", Type: expr.SliceOf(expr.Named("gopkg.in/yaml.v3", "Node"))},
	)

	content := string(generate(t, b).Content)

	assert.Contains(t, content, "\t\"example.com/a/model\"\n")
	assert.Contains(t, content, "\tmodel2 \"example.com/b/model\"\n")
	assert.Contains(t, content, "\tyaml \"gopkg.in/yaml.v3\"\n")
	assert.Contains(t, content, "model2.Kind")
	assert.Contains(t, content, "[]yaml.Node")
}

func TestPkgName(t *testing.T) {
	tests := map[string]string{
		"projection-generator/store":  "store",
		"gopkg.in/yaml.v3":            "yaml",
		"github.com/sebdah/goldie/v2": "goldie",
		"github.com/goccy/go-json":    "gojson",
		"time":                        "time",
		"example.com/3d":              "pkg3d",
	}

	for in, want := range tests {
		assert.Equal(t, want, pkgName(in), in)
	}
}

func TestGenerate_RendersEveryNodeKind(t *testing.T) {
	o := expr.Param("o", order)
	shape := expr.Shape(warehousePkg, "projection00000000")
	total := expr.Member(o, "TotalCents", expr.Basic("int64"))

	b := scalarBatch(callsite.DefaultOptions())
	b.Funcs[0].Lambda = expr.NewLambda("o", order, expr.New(shape,
		expr.F("Neg", expr.Unary(expr.OpNeg, total, expr.Basic("int64"))),
		expr.F("Big", expr.Binary(expr.OpGt, total, expr.Const(int64(1000), expr.Basic("int")), expr.Basic("bool"))),
		expr.F("Ratio", expr.Binary(expr.OpDiv, total, expr.Const(2.5, expr.Basic("float64")), expr.Basic("float64"))),
		expr.F("Label", expr.Const("x\"y", expr.Basic("string"))),
		expr.F("Min", expr.Capture("min", expr.Basic("int64"))),
		expr.F("Fmt", expr.OpaqueCall(expr.Capture("clock", expr.Named("time", "Time")), "Format", expr.Basic("string"),
			expr.Const("2006", expr.Basic("string")))),
		expr.F("Tags", expr.Member(o, "Attributes", expr.MapOf(expr.Basic("string"), expr.Basic("string")))),
	))

	content := string(generate(t, b).Content)

	for _, s := range []string{
		`expr.Unary(expr.OpNeg, `,
		`expr.Binary(expr.OpGt, `,
		`expr.Const(int64(1000), expr.Basic("int"))`,
		`expr.Const(float64(2.5), expr.Basic("float64"))`,
		`expr.Const("x\"y", expr.Basic("string"))`,
		`expr.Capture("min", expr.Basic("int64"))`,
		`expr.OpaqueCall(expr.Capture("clock", expr.Named("time", "Time")), "Format", expr.Basic("string"), expr.Const("2006", expr.Basic("string")))`,
		`expr.MapOf(expr.Basic("string"), expr.Basic("string"))`,
	} {
		assert.Contains(t, content, s)
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("unnamed shape", func(t *testing.T) {
		b := scalarBatch(callsite.DefaultOptions())
		unnamed := &expr.Type{Kind: expr.TypeShape, Ref: "1"}
		b.Funcs[0].Lambda = expr.NewLambda("o", order, expr.New(unnamed))

		_, err := NewGenerator(GeneratorConfig{}).Generate(b)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no emitted name")
		assert.Contains(t, err.Error(), siteID)
	})

	t.Run("null-propagating call", func(t *testing.T) {
		b := scalarBatch(callsite.DefaultOptions())
		call := expr.Call(expr.Param("o", order), "Count", expr.Basic("int"))
		call.Safe = true
		b.Funcs[0].Lambda = expr.NewLambda("o", order, call)

		_, err := NewGenerator(GeneratorConfig{}).Generate(b)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "was not rewritten")
	})
}

func TestGenerate_SkipsNamespacesWithoutFuncs(t *testing.T) {
	b := scalarBatch(callsite.DefaultOptions())
	b.Funcs = nil

	files, err := NewGenerator(DefaultGeneratorConfig()).Generate(b)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWriteFiles(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(root, "abs")

	files := []GeneratedFile{
		{Dir: "rel/pkg", Filename: DefaultFilename, Content: []byte("package pkg\n")},
		{Dir: abs, Filename: DefaultFilename, Content: []byte("package abs\n")},
		{Filename: "root.go", Content: []byte("package root\n")},
	}

	require.NoError(t, WriteFiles(files, root))

	for path, want := range map[string]string{
		filepath.Join(root, "rel", "pkg", DefaultFilename): "package pkg\n",
		filepath.Join(abs, DefaultFilename):                "package abs\n",
		filepath.Join(root, "root.go"):                     "package root\n",
	} {
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

func TestWriteDebugUnformatted(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeDebugUnformatted(dir, DefaultFilename, []byte("package x\nfunc (")))

	got, err := os.ReadFile(filepath.Join(dir, "_projections_gen.unformatted.go"))
	require.NoError(t, err)
	assert.Equal(t, "package x\nfunc (", string(got))

	assert.NoError(t, writeDebugUnformatted("", DefaultFilename, nil))
}

func TestManifest(t *testing.T) {
	b := orderBatch()
	b.Diagnostics.AddWarning(diagnostic.CodeUnresolvedNestedReference, "detached", diagnostic.Location{}, siteID, "Lines")

	path := filepath.Join(t.TempDir(), "out", ManifestFilename)
	require.NoError(t, WriteManifest(b, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		Types []struct {
			Name      string             `json:"name"`
			Namespace callsite.Namespace `json:"namespace"`
		} `json:"types"`
		Funcs []struct {
			Name   string          `json:"name"`
			Key    string          `json:"key"`
			Lambda json.RawMessage `json:"lambda"`
		} `json:"funcs"`
		Diagnostics []map[string]any `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded.Types, 2)
	assert.Equal(t, "OrderDto", decoded.Types[0].Name)
	assert.Equal(t, warehouse, decoded.Types[0].Namespace)

	require.Len(t, decoded.Funcs, 2)
	assert.Equal(t, "1a2b3c4d5e6f7a8b", decoded.Funcs[0].Key)

	lambda, err := expr.Unmarshal(decoded.Funcs[0].Lambda)
	require.NoError(t, err)
	assert.Equal(t, b.Funcs[0].Lambda.String(), lambda.String())

	require.Len(t, decoded.Diagnostics, 1)
	assert.Equal(t, "unresolved_nested_reference", decoded.Diagnostics[0]["code"])
}

func TestManifest_EmptyBatch(t *testing.T) {
	data, err := NewManifest(&emit.Batch{}).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"types": [], "funcs": []}`, string(data))
}

var loadStore = sync.OnceValues(func() (*analyze.Analyzer, error) {
	a := analyze.NewAnalyzer()
	_, err := a.LoadPackages(storePkg)

	return a, err
})

func TestGenerate_FromAnalyzedSites(t *testing.T) {
	a, err := loadStore()
	require.NoError(t, err)

	selectors := []string{
		`o => new { o.ID, Buyer = o.Customer?.FullName, Lines = o.Items.Select(i => new { i.Name, i.Quantity }) }`,
		`o => new { o.Number, City = o.Customer?.Address?.City ?? "unknown", Count = o.Items.Count() }`,
	}

	var results []*nest.Result
	for line, sel := range selectors {
		site := &callsite.CallSite{
			ID:        fmt.Sprintf("%s/orders.go:%d:2", warehousePkg, line+1),
			Location:  diagnostic.Location{File: "orders.go", Line: line + 1, Column: 2},
			Namespace: warehouse,
			Source:    a.Lookup(storePkg, "Order"),
			Mode:      callsite.Anonymous{},
			Selector:  sel,
			Options:   callsite.DefaultOptions(),
		}

		res, err := nest.New(a, nest.Limits{}).Analyze(site)
		require.NoError(t, err, sel)

		results = append(results, res)
	}

	b, err := emit.Emit(results)
	require.NoError(t, err)

	file := generate(t, b)
	content := string(file.Content)

	parsed, err := parser.ParseFile(token.NewFileSet(), file.Filename, file.Content, parser.ParseComments)
	require.NoError(t, err)

	var imports []string
	for _, spec := range parsed.Imports {
		imports = append(imports, strings.Trim(spec.Path.Value, `"`))
	}

	assert.True(t, strings.HasPrefix(content, "// Code generated by projection-generator. DO NOT EDIT.\n"))
	assert.Equal(t, 2, strings.Count(content, "proj.Register("))
	assert.Contains(t, imports, "projection-generator/expr")
	assert.NotContains(t, imports, "projection-generator/store", "source types only appear as strings")

	for _, f := range b.Funcs {
		assert.Contains(t, content, "func "+f.Name+"() *expr.Lambda {")
		assert.Contains(t, content, `Key:    "`+f.Key+`",`)
	}
}
