package discover

import (
	"context"
	"fmt"
	"go/types"
	"log/slog"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"projection-generator/internal/analyze"
	"projection-generator/internal/callsite"
	"projection-generator/internal/diagnostic"
	"projection-generator/proj"
)

var projPkg = reflect.TypeFor[proj.Binding]().PkgPath()

// Config holds configuration for discovery.
type Config struct {
	// Dir is the working directory patterns are resolved against; empty means
	// the current directory.
	Dir string
	// Options are applied to every discovered call site.
	Options callsite.Options
	// Logger receives load problems and per-package counts; nil discards.
	Logger *slog.Logger
}

// Discoverer finds projection call sites in Go packages.
type Discoverer struct {
	analyzer *analyze.Analyzer
	config   Config
	logger   *slog.Logger
	loaded   map[string]*packages.Package
}

// Result is the outcome of a discovery run.
type Result struct {
	Sites       []*callsite.CallSite
	Diagnostics diagnostic.Diagnostics
}

// New returns a Discoverer adding loaded packages to analyzer.
func New(analyzer *analyze.Analyzer, config Config) *Discoverer {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Discoverer{
		analyzer: analyzer,
		config:   config,
		logger:   logger,
		loaded:   make(map[string]*packages.Package),
	}
}

// Load loads the packages matched by patterns and collects their call sites.
// Type errors do not fail the load: outputs named by SelectAs are often not
// generated yet. They are reported as load_problem warnings.
func (d *Discoverer) Load(ctx context.Context, patterns ...string) (*Result, error) {
	pkgs, err := d.load(ctx, patterns...)
	if err != nil {
		return nil, err
	}

	res := &Result{}

	for _, pkg := range pkgs {
		d.reportErrors(pkg, &res.Diagnostics)

		if pkg.Types == nil || pkg.TypesInfo == nil {
			continue
		}

		sites := d.inspect(pkg, &res.Diagnostics)
		d.logger.Debug("discover.package", "package", pkg.PkgPath, "sites", len(sites))

		res.Sites = append(res.Sites, sites...)
	}

	slices.SortFunc(res.Sites, callsite.Compare)

	return res, nil
}

func (d *Discoverer) load(ctx context.Context, patterns ...string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Mode:    analyze.LoadMode,
		Context: ctx,
		Dir:     d.config.Dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var typed []*packages.Package
	for _, pkg := range pkgs {
		if pkg.Types != nil {
			typed = append(typed, pkg)
			d.loaded[pkg.PkgPath] = pkg
		}
	}

	if err := d.analyzer.AddPackages(typed); err != nil {
		return nil, err
	}

	return pkgs, nil
}

// reportErrors turns package errors into warnings. The go command repeats
// type errors as position-less list errors; those copies are dropped.
func (d *Discoverer) reportErrors(pkg *packages.Package, diags *diagnostic.Diagnostics) {
	for _, e := range pkg.Errors {
		if e.Kind == packages.ListError && repeatsTypedError(e, pkg.Errors) {
			continue
		}

		d.logger.Warn("discover.load_problem", "package", pkg.PkgPath, "error", e.Msg)
		diags.AddWarning(diagnostic.CodeLoadProblem, e.Msg, parsePos(e.Pos), "", "")
	}
}

func repeatsTypedError(e packages.Error, all []packages.Error) bool {
	for _, o := range all {
		if o.Kind != packages.ListError && o.Msg != "" && strings.Contains(e.Msg, o.Msg) {
			return true
		}
	}

	return false
}

// declared returns the types declared in pkg outside generated files.
func (d *Discoverer) declared(pkg *packages.Package) map[string]*analyze.TypeInfo {
	out := make(map[string]*analyze.TypeInfo)

	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}

		if d.analyzer.IsGeneratedFile(pkg.Fset.Position(tn.Pos()).Filename) {
			continue
		}

		out[name] = d.analyzer.TypeOf(tn.Type())
	}

	return out
}

func namespaceOf(pkg *packages.Package) callsite.Namespace {
	ns := callsite.Namespace{Path: pkg.PkgPath, Package: pkg.Name}
	if len(pkg.GoFiles) > 0 {
		ns.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	return ns
}

// parsePos parses the "file:line:col" positions of packages.Error.
func parsePos(pos string) diagnostic.Location {
	var loc diagnostic.Location
	if pos == "" || pos == "-" {
		return loc
	}

	parts := strings.Split(pos, ":")

	// Trailing numeric parts are line and column; the file may hold colons.
	var nums []int
	for len(parts) > 1 && len(nums) < 2 {
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			break
		}

		nums = append([]int{n}, nums...)
		parts = parts[:len(parts)-1]
	}

	loc.File = strings.Join(parts, ":")
	if len(nums) > 0 {
		loc.Line = nums[0]
	}

	if len(nums) > 1 {
		loc.Column = nums[1]
	}

	return loc
}
