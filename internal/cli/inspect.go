package cli

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"projection-generator/internal/nest"
	"projection-generator/internal/plan"
	"projection-generator/internal/schema"
)

// InspectOptions holds the flags of the inspect command.
type InspectOptions struct {
	Raw bool
}

// SiteReport describes the analysis of one call site.
type SiteReport struct {
	CallSite string        `json:"call_site"`
	Mode     string        `json:"mode"`
	Selector string        `json:"selector"`
	Lambda   string        `json:"lambda"`
	Shapes   []ShapeReport `json:"shapes"`
}

// ShapeReport describes one inferred output shape.
type ShapeReport struct {
	Path       string           `json:"path"`
	Hash       string           `json:"hash"`
	Detached   bool             `json:"detached,omitempty"`
	Properties []PropertyReport `json:"properties"`
}

// PropertyReport describes one member of a shape.
type PropertyReport struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Nullable      bool   `json:"nullable,omitempty"`
	EmptyFallback bool   `json:"empty_fallback,omitempty"`
	Source        string `json:"source,omitempty"`
}

var rawDumper = spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect [packages...]",
		Short: "Show the inferred schema of every call site",
		Long: `Analyze every projection call site and print its inferred shapes and the
rewritten expression tree. With --raw the expression trees are dumped in
full.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "dump the rewritten expression trees")

	return cmd
}

func runInspect(cmd *cobra.Command, rootOpts *RootOptions, opts *InspectOptions, args []string) error {
	ctx := cmd.Context()
	logger := newLogger(rootOpts, cmd.ErrOrStderr())
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

	p, err := loadProject(ctx, rootOpts, args, logger)
	if err != nil {
		return err
	}

	c := plan.NewCompiler(p.analyzer, plan.Config{
		Workers: p.config.Analysis.Workers,
		Limits:  p.config.Analysis.Limits(),
		Logger:  logger,
	})

	a, err := c.Analyze(ctx, p.sites)
	if err != nil {
		return WrapExitError(ExitCommandError, "analyzing call sites", err)
	}

	a.Diagnostics.Merge(p.diags)

	for _, res := range a.Results {
		for _, d := range res.Diagnostics {
			a.Diagnostics.Add(d)
		}
	}

	var (
		reports []SiteReport
		lines   []string
	)

	for _, res := range a.Results {
		r, err := siteReport(res)
		if err != nil {
			return WrapExitError(ExitCommandError, "hashing shapes", err)
		}

		reports = append(reports, r)
		lines = append(lines, r.text()...)

		if opts.Raw {
			lines = append(lines, rawDumper.Sdump(res.Lambda))
		}
	}

	if err := formatter.Report(reports, lines, &a.Diagnostics); err != nil {
		return err
	}

	return failOnErrors(&a.Diagnostics)
}

func siteReport(res *nest.Result) (SiteReport, error) {
	if err := schema.ComputeHashes(res.Tree.Nodes); err != nil {
		return SiteReport{}, err
	}

	r := SiteReport{
		CallSite: res.Site.ID,
		Mode:     res.Site.Mode.String(),
		Selector: res.Site.Selector,
		Lambda:   res.Lambda.String(),
	}

	for _, n := range res.Tree.Nodes {
		s := ShapeReport{Path: n.Path(), Hash: n.Hash, Detached: n.Detached}
		if s.Path == "" {
			s.Path = "."
		}

		for _, prop := range n.Properties {
			s.Properties = append(s.Properties, PropertyReport{
				Name:          prop.Name,
				Type:          prop.Type.String(),
				Nullable:      prop.Nullable,
				EmptyFallback: prop.EmptyFallback,
				Source:        prop.Source,
			})
		}

		r.Shapes = append(r.Shapes, s)
	}

	return r, nil
}

func (r SiteReport) text() []string {
	lines := []string{
		fmt.Sprintf("%s %s", r.CallSite, r.Mode),
		"  " + r.Lambda,
	}

	for _, s := range r.Shapes {
		head := fmt.Sprintf("  shape %s #%s", s.Path, shortHash(s.Hash))
		if s.Detached {
			head += " (detached)"
		}

		lines = append(lines, head)

		for _, p := range s.Properties {
			var flags []string
			if p.Nullable {
				flags = append(flags, "nullable")
			}

			if p.EmptyFallback {
				flags = append(flags, "empty-fallback")
			}

			line := fmt.Sprintf("    %s %s", p.Name, p.Type)
			if len(flags) > 0 {
				line += " [" + strings.Join(flags, ",") + "]"
			}

			lines = append(lines, line)
		}
	}

	return lines
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}

	return h
}
