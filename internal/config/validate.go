package config

import (
	"fmt"
	"go/token"
	"path/filepath"
	"strings"

	"projection-generator/internal/diagnostic"
)

// Validate checks the structure of a project file. Types named by call-site
// entries are resolved later, when their packages are loaded.
func Validate(f *File) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if f == nil {
		res.AddError(diagnostic.CodeInvalidConfig, "config is nil", diagnostic.Location{}, "", "")
		return res
	}

	fileLoc := diagnostic.Location{File: f.Path}

	if f.Version != "1" {
		res.AddError(diagnostic.CodeInvalidConfig,
			fmt.Sprintf("unsupported version %q (expected \"1\")", f.Version), fileLoc, "", "version")
	}

	name := f.Output.Filename
	if filepath.Base(name) != name || filepath.Ext(name) != ".go" || strings.HasPrefix(name, "_") {
		res.AddError(diagnostic.CodeInvalidConfig,
			fmt.Sprintf("output filename %q must be a plain .go file name", name), fileLoc, "", "output.filename")
	}

	if f.Analysis.Workers < 1 {
		res.AddError(diagnostic.CodeInvalidConfig, "analysis.workers must be at least 1", fileLoc, "", "analysis.workers")
	}

	if f.Analysis.MaxDepth < 1 {
		res.AddError(diagnostic.CodeInvalidConfig, "analysis.max_depth must be at least 1", fileLoc, "", "analysis.max_depth")
	}

	if f.Analysis.MaxSelfNesting < 1 {
		res.AddError(diagnostic.CodeInvalidConfig,
			"analysis.max_self_nesting must be at least 1", fileLoc, "", "analysis.max_self_nesting")
	}

	seen := make(map[string]int)

	for i := range f.CallSites {
		c := &f.CallSites[i]
		path := fmt.Sprintf("callsites[%d]", i)
		loc := diagnostic.Location{File: f.Path, Line: c.Line}

		if c.ID == "" {
			res.AddError(diagnostic.CodeInvalidConfig, "call site id is required", loc, "", path+".id")
		} else if prev, ok := seen[c.ID]; ok {
			res.AddError(diagnostic.CodeInvalidConfig,
				fmt.Sprintf("duplicate call site id %q (first declared at callsites[%d])", c.ID, prev), loc, c.ID, path+".id")
		} else {
			seen[c.ID] = i
		}

		if c.Package == "" {
			res.AddError(diagnostic.CodeInvalidConfig, "call site package is required", loc, c.ID, path+".package")
		}

		if pkg, _, ok := SplitQualified(c.Source); !ok || pkg == "" {
			res.AddError(diagnostic.CodeInvalidConfig,
				fmt.Sprintf("source %q is not a qualified type name like example.com/pkg.Type", c.Source),
				loc, c.ID, path+".source")
		}

		if c.Output != "" && !token.IsIdentifier(c.Output) {
			res.AddError(diagnostic.CodeInvalidConfig,
				fmt.Sprintf("output %q is not a Go identifier", c.Output), loc, c.ID, path+".output")
		}

		if strings.TrimSpace(c.Selector) == "" {
			res.AddError(diagnostic.CodeInvalidConfig, "call site selector is required", loc, c.ID, path+".selector")
		}

		validateCaptures(res, c, loc, path)
	}

	return res
}

func validateCaptures(res *diagnostic.Diagnostics, c *CallSiteSpec, loc diagnostic.Location, path string) {
	names := make(map[string]bool)

	for j, cp := range c.Captures {
		cpPath := fmt.Sprintf("%s.captures[%d]", path, j)

		switch {
		case !token.IsIdentifier(cp.Name):
			res.AddError(diagnostic.CodeInvalidConfig,
				fmt.Sprintf("capture name %q is not a Go identifier", cp.Name), loc, c.ID, cpPath+".name")
		case names[cp.Name]:
			res.AddError(diagnostic.CodeInvalidConfig,
				fmt.Sprintf("duplicate capture %q", cp.Name), loc, c.ID, cpPath+".name")
		}

		names[cp.Name] = true

		if _, _, ok := SplitQualified(cp.Type); !ok {
			res.AddError(diagnostic.CodeInvalidConfig,
				fmt.Sprintf("capture %q has invalid type %q", cp.Name, cp.Type), loc, c.ID, cpPath+".type")
		}
	}
}

// SplitQualified splits "example.com/pkg.Type" into its package path and
// type name. Predeclared names like "int" have an empty package path.
func SplitQualified(s string) (pkgPath, name string, ok bool) {
	slash := strings.LastIndexByte(s, '/')

	dot := strings.LastIndexByte(s[slash+1:], '.')
	if dot < 0 {
		return "", s, token.IsIdentifier(s) && slash < 0
	}

	dot += slash + 1
	pkgPath, name = s[:dot], s[dot+1:]

	return pkgPath, name, pkgPath != "" && token.IsIdentifier(name)
}
