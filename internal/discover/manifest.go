package discover

import (
	"context"
	"slices"

	"projection-generator/internal/callsite"
	"projection-generator/internal/config"
	"projection-generator/internal/diagnostic"
)

// FromConfig builds the call sites listed under callsites in a project file.
// Packages the entries refer to are loaded when discovery has not seen them.
func (d *Discoverer) FromConfig(ctx context.Context, f *config.File) (*Result, error) {
	res := &Result{}
	if f == nil || len(f.CallSites) == 0 {
		return res, nil
	}

	var missing []string

	need := func(pkgPath string) {
		if pkgPath == "" || slices.Contains(missing, pkgPath) {
			return
		}

		if _, ok := d.loaded[pkgPath]; !ok {
			missing = append(missing, pkgPath)
		}
	}

	for i := range f.CallSites {
		c := &f.CallSites[i]
		need(c.Package)

		if pkg, _, ok := config.SplitQualified(c.Source); ok {
			need(pkg)
		}

		for _, cp := range c.Captures {
			if pkg, _, ok := config.SplitQualified(cp.Type); ok {
				need(pkg)
			}
		}
	}

	if len(missing) > 0 {
		pkgs, err := d.load(ctx, missing...)
		if err != nil {
			return nil, err
		}

		for _, pkg := range pkgs {
			d.reportErrors(pkg, &res.Diagnostics)
		}
	}

	for i := range f.CallSites {
		c := &f.CallSites[i]
		loc := diagnostic.Location{File: f.Path, Line: c.Line}

		site, err := d.declaredSite(f, c, loc)
		if err != nil {
			res.Diagnostics.Add(err.Diagnostic(c.ID, loc))
			continue
		}

		res.Sites = append(res.Sites, site)
	}

	slices.SortFunc(res.Sites, callsite.Compare)

	return res, nil
}

func (d *Discoverer) declaredSite(f *config.File, c *config.CallSiteSpec, loc diagnostic.Location) (*callsite.CallSite, *diagnostic.Error) {
	pkg, ok := d.loaded[c.Package]
	if !ok {
		return nil, invalid("package %q could not be loaded", c.Package)
	}

	src, err := d.analyzer.Resolve(c.Source)
	if err != nil {
		return nil, invalid("source: %s", err)
	}

	declared := d.declared(pkg)

	site := &callsite.CallSite{
		ID:        c.ID,
		Location:  loc,
		Namespace: namespaceOf(pkg),
		Source:    src,
		Mode:      callsite.Anonymous{},
		Selector:  c.Selector,
		Options:   f.Options(c),
		Declared:  declared,
	}

	if c.Output != "" {
		if t, ok := declared[c.Output]; ok {
			site.Mode = callsite.PreExisting{Type: t}
		} else {
			site.Mode = callsite.ExplicitNamed{Name: c.Output}
		}
	}

	for _, cp := range c.Captures {
		t, err := d.analyzer.Resolve(cp.Type)
		if err != nil {
			return nil, invalid("capture %q: %s", cp.Name, err)
		}

		site.Captures = append(site.Captures, callsite.Capture{Name: cp.Name, Type: t})
	}

	return site, nil
}
