package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"projection-generator/internal/gen"
)

// GenOptions holds the flags of the gen command.
type GenOptions struct {
	DryRun   bool
	Manifest string
}

// GenResult is the data reported by gen.
type GenResult struct {
	Files    []string `json:"files"`
	Manifest string   `json:"manifest,omitempty"`
	DryRun   bool     `json:"dry_run,omitempty"`
	Types    int      `json:"types"`
	Funcs    int      `json:"funcs"`
}

// NewGenCommand creates the gen command.
func NewGenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenOptions{}

	cmd := &cobra.Command{
		Use:   "gen [packages...]",
		Short: "Generate projection types and expression trees",
		Long: `Compile every projection call site of the given packages (default: the
packages listed in the project file) and write one generated file into each
caller package. Call sites with errors are skipped and reported; the command
then exits with status 1.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report the files that would be written without writing them")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "write a JSON artifact manifest to this path")

	return cmd
}

func runGen(cmd *cobra.Command, rootOpts *RootOptions, opts *GenOptions, args []string) error {
	ctx := cmd.Context()
	logger := newLogger(rootOpts, cmd.ErrOrStderr())
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

	p, err := loadProject(ctx, rootOpts, args, logger)
	if err != nil {
		return err
	}

	batch, err := p.compile(ctx)
	if err != nil {
		return err
	}

	genConfig := gen.DefaultGeneratorConfig()
	if p.config.Output.Filename != "" {
		genConfig.Filename = p.config.Output.Filename
	}

	generator := gen.NewGenerator(genConfig)

	files, err := generator.Generate(batch)
	if err != nil {
		return WrapExitError(ExitCommandError, "generating code", err)
	}

	res := GenResult{DryRun: opts.DryRun, Types: len(batch.Types), Funcs: len(batch.Funcs)}

	var lines []string
	for _, f := range files {
		path := f.Path(rootOpts.Dir)
		res.Files = append(res.Files, path)

		verb := "wrote"
		if opts.DryRun {
			verb = "would write"
		}

		lines = append(lines, fmt.Sprintf("%s %s", verb, path))
	}

	manifest := opts.Manifest
	if manifest == "" {
		manifest = p.config.Output.Manifest
	}

	res.Manifest = resolve(rootOpts, manifest)

	if !opts.DryRun {
		if err := gen.WriteFiles(files, rootOpts.Dir); err != nil {
			return WrapExitError(ExitCommandError, "writing files", err)
		}

		if res.Manifest != "" {
			if err := gen.WriteManifest(batch, res.Manifest); err != nil {
				return WrapExitError(ExitCommandError, "writing manifest", err)
			}

			lines = append(lines, "wrote "+res.Manifest)
		}
	}

	logger.Info("cli.gen", "files", len(files), "types", res.Types, "funcs", res.Funcs, "dry_run", opts.DryRun)

	if err := formatter.Report(res, lines, &batch.Diagnostics); err != nil {
		return err
	}

	return failOnErrors(&batch.Diagnostics)
}
