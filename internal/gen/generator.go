package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"strings"
	"text/template"

	"projection-generator/expr"
	"projection-generator/internal/callsite"
	"projection-generator/internal/common"
	"projection-generator/internal/emit"
)

// DefaultFilename is the file written into every caller package.
const DefaultFilename = "projections_gen.go"

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// Filename is the name of the generated file in each caller package.
	Filename string
	// DebugUnformatted writes the unformatted source next to the intended
	// output when formatting fails.
	DebugUnformatted bool
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Filename:         DefaultFilename,
		DebugUnformatted: true,
	}
}

// Generator renders emission batches as Go source.
type Generator struct {
	config GeneratorConfig
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(config GeneratorConfig) *Generator {
	if config.Filename == "" {
		config.Filename = DefaultFilename
	}

	return &Generator{config: config}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Dir is the directory of the caller package; empty when unknown.
	Dir string
	// Package is the import path of the caller package.
	Package string
	// Filename is the name of the file, e.g. "projections_gen.go".
	Filename string
	// Content is the formatted Go source code.
	Content []byte
}

// templateData holds all data needed for one generated file.
type templateData struct {
	PackageName string
	Imports     []importSpec
	Expr        string
	Proj        string
	Types       []typeData
	Funcs       []funcData
}

type typeData struct {
	Doc    []string
	Name   string
	Fields []fieldData
	Ctor   *ctorData
}

type fieldData struct {
	Doc  []string
	Name string
	Type string
	Tag  string
}

// ctorData describes the New<Type> constructor of the GetInit accessor mode.
type ctorData struct {
	Doc    []string
	Name   string
	Type   string
	Result string
	Amp    string
	Params []paramData
}

type paramData struct {
	Name  string
	Type  string
	Field string
}

type funcData struct {
	Doc    []string
	Name   string
	Body   string
	Key    string
	Source string
	Output string
	New    string
}

// Generate renders one file per namespace of b that has projection
// functions. Files are returned in namespace order.
func (g *Generator) Generate(b *emit.Batch) ([]GeneratedFile, error) {
	var files []GeneratedFile

	for _, ns := range b.Namespaces() {
		funcs := b.FuncsIn(ns.Path)
		if len(funcs) == 0 {
			continue
		}

		file, err := g.generateNamespace(ns, b.TypesIn(ns.Path), funcs)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", ns.Path, err)
		}

		files = append(files, *file)
	}

	return files, nil
}

func (g *Generator) generateNamespace(ns callsite.Namespace, types []*emit.TypeDef, funcs []*emit.FuncDef) (*GeneratedFile, error) {
	imports := newImportSet(ns.Path)

	data := &templateData{
		PackageName: ns.Package,
		Expr:        imports.add(exprPkg),
		Proj:        imports.add(projPkg),
	}

	for _, td := range types {
		data.Types = append(data.Types, buildType(td, imports))
	}

	tw := newTreeWriter(data.Expr)

	for _, fd := range funcs {
		f, err := buildFunc(fd, imports, tw)
		if err != nil {
			return nil, fmt.Errorf("call site %s: %w", fd.CallSite, err)
		}

		data.Funcs = append(data.Funcs, f)
	}

	data.Imports = imports.specs()

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	file := &GeneratedFile{
		Dir:      ns.Dir,
		Package:  ns.Path,
		Filename: g.config.Filename,
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		// Best-effort: the sidecar only helps debugging.
		if g.config.DebugUnformatted {
			_ = writeDebugUnformatted(ns.Dir, file.Filename, buf.Bytes())
		}

		file.Content = buf.Bytes()

		return file, fmt.Errorf("formatting code: %w (unformatted code returned)", err)
	}

	file.Content = formatted

	return file, nil
}

func buildType(td *emit.TypeDef, imports *importSet) typeData {
	opts := td.Options
	t := typeData{Name: td.Name}

	if opts.CommentOutputMode != callsite.CommentNone {
		t.Doc = append(t.Doc, fmt.Sprintf("%s is a projection of %s.", td.Name, td.Source))
	}

	if opts.CommentOutputMode == callsite.CommentFull && len(td.Sites) > 0 {
		t.Doc = append(t.Doc, "Call sites: "+strings.Join(td.Sites, ", ")+".")
	}

	for _, f := range td.Fields {
		fd := fieldData{
			Name: f.Name,
			Type: imports.goType(f.Type),
			Tag:  jsonTag(f, opts),
		}

		if opts.CommentOutputMode == callsite.CommentFull && f.Source != "" {
			fd.Doc = append(fd.Doc, "Source: "+oneLine(f.Source))
		}

		if f.EmptyFallback && !opts.ArrayNullabilityRemoval && opts.CommentOutputMode != callsite.CommentNone {
			fd.Doc = append(fd.Doc, "Omitted when the source collection is null.")
		}

		t.Fields = append(t.Fields, fd)
	}

	if opts.PropertyAccessorMode == callsite.AccessorGetInit {
		t.Ctor = buildCtor(td, t.Fields)
	}

	return t
}

// jsonTag returns the struct tag of f. Nullable members are omitted when
// empty unless every member is required.
func jsonTag(f emit.FieldDef, opts callsite.Options) string {
	name := common.LowerFirst(f.Name)

	omit := f.Nullable || (f.EmptyFallback && !opts.ArrayNullabilityRemoval)
	if omit && !opts.RequiredModifierOnProperties {
		name += ",omitempty"
	}

	return `json:"` + name + `"`
}

func buildCtor(td *emit.TypeDef, fields []fieldData) *ctorData {
	c := &ctorData{
		Name:   "New" + common.Export(td.Name),
		Type:   td.Name,
		Result: td.Name,
	}

	if !td.Exported {
		c.Name = "new" + common.Export(td.Name)
	}

	if !td.Options.RecordInsteadOfClass {
		c.Result = "*" + td.Name
		c.Amp = "&"
	}

	if td.Options.CommentOutputMode != callsite.CommentNone {
		c.Doc = []string{fmt.Sprintf("%s returns a new %s with every field set.", c.Name, td.Name)}
	}

	used := make(map[string]bool)

	for _, f := range fields {
		name := common.LowerFirst(f.Name)
		if token.IsKeyword(name) {
			name += "Value"
		}

		base := name
		for i := 2; used[name]; i++ {
			name = base + strconv.Itoa(i)
		}

		used[name] = true
		c.Params = append(c.Params, paramData{Name: name, Type: f.Type, Field: f.Name})
	}

	return c
}

func buildFunc(fd *emit.FuncDef, imports *importSet, tw *treeWriter) (funcData, error) {
	body, err := tw.lambda(fd.Lambda)
	if err != nil {
		return funcData{}, err
	}

	out := imports.goType(expr.NonNull(fd.Output))
	if !fd.Options.RecordInsteadOfClass {
		out = "&" + out
	}

	f := funcData{
		Name:   fd.Name,
		Body:   body,
		Key:    fd.Key,
		Source: fd.Source.Pkg + "." + fd.Source.Name,
		Output: fd.OutputName,
		New:    out + "{}",
	}

	if fd.Options.CommentOutputMode != callsite.CommentNone {
		f.Doc = append(f.Doc, fmt.Sprintf("%s builds the projection at %s.", fd.Name, fd.CallSite))

		if len(fd.Sites) > 1 {
			f.Doc = append(f.Doc, fmt.Sprintf("It is shared by %d call sites.", len(fd.Sites)))
		}
	}

	if fd.Options.CommentOutputMode == callsite.CommentFull {
		f.Doc = append(f.Doc, "Selector: "+oneLine(fd.Selector))
	}

	return f, nil
}

// oneLine collapses runs of white space, newlines included.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var fileTemplate = template.Must(template.New("projections").Parse(`// Code generated by projection-generator. DO NOT EDIT.

package {{.PackageName}}

import (
{{range .Imports}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})
{{range .Types}}
{{range .Doc}}// {{.}}
{{end}}type {{.Name}} struct {
{{range .Fields}}{{range .Doc}}	// {{.}}
{{end}}	{{.Name}} {{.Type}} ` + "`{{.Tag}}`" + `
{{end}}}
{{with .Ctor}}
{{range .Doc}}// {{.}}
{{end}}func {{.Name}}({{range $i, $p := .Params}}{{if $i}}, {{end}}{{$p.Name}} {{$p.Type}}{{end}}) {{.Result}} {
	return {{.Amp}}{{.Type}}{
{{range .Params}}		{{.Field}}: {{.Name}},
{{end}}	}
}
{{end}}{{end}}{{range .Funcs}}
{{range .Doc}}// {{.}}
{{end}}func {{.Name}}() *{{$.Expr}}.Lambda {
	return {{.Body}}
}
{{end}}
func init() {
{{range .Funcs}}	{{$.Proj}}.Register({{$.Proj}}.Binding{
		Key:    {{printf "%q" .Key}},
		Source: {{printf "%q" .Source}},
		Output: {{printf "%q" .Output}},
		Build:  {{.Name}},
		New:    func() any { return {{.New}} },
	})
{{end}}}
`))
