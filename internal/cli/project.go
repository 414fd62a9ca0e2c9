package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"projection-generator/internal/analyze"
	"projection-generator/internal/callsite"
	"projection-generator/internal/config"
	"projection-generator/internal/diagnostic"
	"projection-generator/internal/discover"
	"projection-generator/internal/emit"
	"projection-generator/internal/plan"
)

// project is the loaded input of one command run.
type project struct {
	config   *config.File
	analyzer *analyze.Analyzer
	sites    []*callsite.CallSite
	diags    diagnostic.Diagnostics
	logger   *slog.Logger
}

// loadProject reads the project file and discovers call sites in patterns,
// or in the configured packages when patterns is empty. Invalid
// configuration is reported in the diagnostics without discovering anything.
func loadProject(ctx context.Context, opts *RootOptions, patterns []string, logger *slog.Logger) (*project, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading config", err)
	}

	p := &project{
		config:   cfg,
		analyzer: analyze.NewAnalyzer(),
		logger:   logger,
	}

	p.diags.Merge(*config.Validate(cfg))
	if p.diags.HasErrors() {
		return p, nil
	}

	if len(patterns) == 0 {
		patterns = cfg.Packages
	}

	d := discover.New(p.analyzer, discover.Config{
		Dir:     opts.Dir,
		Options: cfg.Options(nil),
		Logger:  logger,
	})

	found, err := d.Load(ctx, patterns...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "discovering call sites", err)
	}

	declared, err := d.FromConfig(ctx, cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading declared call sites", err)
	}

	p.sites = append(found.Sites, declared.Sites...)
	p.diags.Merge(found.Diagnostics)
	p.diags.Merge(declared.Diagnostics)

	logger.Info("cli.discover", "patterns", patterns, "sites", len(p.sites))

	return p, nil
}

func loadConfig(opts *RootOptions) (*config.File, error) {
	if opts.Config != "" {
		return config.LoadFile(opts.Config)
	}

	path := filepath.Join(opts.Dir, config.DefaultFilename)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}

	return config.LoadFile(path)
}

// compile runs the discovered call sites as one batch. Project diagnostics
// are merged into the batch's.
func (p *project) compile(ctx context.Context) (*emit.Batch, error) {
	c := plan.NewCompiler(p.analyzer, plan.Config{
		Workers: p.config.Analysis.Workers,
		Limits:  p.config.Analysis.Limits(),
		Logger:  p.logger,
	})

	batch, err := c.Run(ctx, p.sites)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "compiling projections", err)
	}

	batch.Diagnostics.Merge(p.diags)

	return batch, nil
}

// resolve returns path relative to the working directory option.
func resolve(opts *RootOptions, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(opts.Dir, path)
}
