package plan

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"projection-generator/internal/bind"
	"projection-generator/internal/callsite"
	"projection-generator/internal/diagnostic"
	"projection-generator/internal/emit"
	"projection-generator/internal/nest"
)

// Config holds configuration for a Compiler.
type Config struct {
	// Workers bounds the call sites analyzed concurrently; zero means
	// GOMAXPROCS.
	Workers int
	// Limits bound shape nesting per call site.
	Limits nest.Limits
	// Logger receives pass timings and skipped call sites; nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns the default compiler configuration.
func DefaultConfig() Config {
	return Config{
		Workers: runtime.GOMAXPROCS(0),
		Limits:  nest.DefaultLimits(),
	}
}

// Compiler runs batches of call sites through analysis and emission.
type Compiler struct {
	analyzer *nest.Analyzer
	config   Config
	logger   *slog.Logger
}

// NewCompiler creates a Compiler resolving types through types.
func NewCompiler(types bind.Types, config Config) *Compiler {
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Compiler{
		analyzer: nest.New(types, config.Limits),
		config:   config,
		logger:   logger,
	}
}

// Analysis is the outcome of the per-call-site phase of a batch.
type Analysis struct {
	// Results holds the call sites that analyzed cleanly, in input order.
	Results []*nest.Result
	// Diagnostics holds the errors of the call sites that were skipped.
	Diagnostics diagnostic.Diagnostics
}

// Analyze analyzes every call site concurrently. Each task writes only its
// own slot; the slots are read after all tasks finished. A call site failing
// with a *diagnostic.Error is skipped and reported. A cancelled context
// aborts the batch.
func (c *Compiler) Analyze(ctx context.Context, sites []*callsite.CallSite) (*Analysis, error) {
	start := time.Now()

	results := make([]*nest.Result, len(sites))
	failures := make([]*diagnostic.Diagnostic, len(sites))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)

	for i, site := range sites {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := c.analyzer.Analyze(site)
			if err != nil {
				de, ok := diagnostic.As(err)
				if !ok {
					return fmt.Errorf("call site %s: %w", site.ID, err)
				}

				d := de.Diagnostic(site.ID, site.Location)
				failures[i] = &d

				return nil
			}

			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a := &Analysis{}

	for i := range sites {
		if d := failures[i]; d != nil {
			c.logger.Debug("plan.skip", "call_site", d.CallSite, "code", string(d.Code), "message", d.Message)
			a.Diagnostics.Add(*d)

			continue
		}

		a.Results = append(a.Results, results[i])
	}

	c.logger.Info("plan.analyze",
		"sites", len(sites), "analyzed", len(a.Results), "skipped", len(sites)-len(a.Results),
		"elapsed", time.Since(start))

	return a, nil
}

// Run compiles one batch: concurrent analysis, then a single sequential
// emission pass over the surviving call sites. Every call builds a fresh
// dedup registry.
func (c *Compiler) Run(ctx context.Context, sites []*callsite.CallSite) (*emit.Batch, error) {
	a, err := c.Analyze(ctx, sites)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	batch, err := emit.Emit(a.Results)
	if err != nil {
		return nil, fmt.Errorf("emitting batch: %w", err)
	}

	batch.Diagnostics.Merge(a.Diagnostics)

	c.logger.Info("plan.emit",
		"types", len(batch.Types), "funcs", len(batch.Funcs),
		"errors", len(batch.Diagnostics.Errors), "warnings", len(batch.Diagnostics.Warnings),
		"elapsed", time.Since(start))

	return batch, nil
}
