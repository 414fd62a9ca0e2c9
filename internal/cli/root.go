package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	// Config is the project file; empty means projection.yaml in Dir when
	// it exists.
	Config string
	// Dir is the directory package patterns are resolved against.
	Dir string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the projection-generator CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "projection-generator",
		Short: "Compile proj.Select selectors into Go types and expression trees",
		Long: `projection-generator finds proj.Select and proj.SelectAs calls, infers the
output shape of every selector and writes a projections_gen.go file next to
each caller with the output types and the compiled expression trees.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "project file (default: projection.yaml when present)")
	cmd.PersistentFlags().StringVarP(&opts.Dir, "dir", "C", "", "directory to resolve package patterns against")

	cmd.AddCommand(NewGenCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))

	return cmd
}

// newLogger returns the structured logger of a command run. Logs go to w,
// which is stderr in production so JSON output stays parseable.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
