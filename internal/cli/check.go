package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CheckResult is the data reported by check.
type CheckResult struct {
	Sites int `json:"sites"`
	Types int `json:"types"`
	Funcs int `json:"funcs"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [packages...]",
		Short: "Report projection diagnostics without writing files",
		Long: `Compile every projection call site and report diagnostics. Nothing is
written. Exits with status 1 when any call site has an error.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, rootOpts, args)
		},
	}

	return cmd
}

func runCheck(cmd *cobra.Command, rootOpts *RootOptions, args []string) error {
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

	res := CheckResult{Sites: len(p.sites), Types: len(batch.Types), Funcs: len(batch.Funcs)}
	line := fmt.Sprintf("%d call site(s): %d type(s), %d function(s)", res.Sites, res.Types, res.Funcs)

	if err := formatter.Report(res, []string{line}, &batch.Diagnostics); err != nil {
		return err
	}

	return failOnErrors(&batch.Diagnostics)
}
