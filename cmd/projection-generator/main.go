// Package main provides the CLI entrypoint for projection-generator.
//
// projection-generator is an ahead-of-time projection compiler that:
//   - Finds proj.Select and proj.SelectAs call sites in Go packages
//   - Infers the output shape of every selector
//   - Rewrites null-safe member access into explicit conditionals
//   - Generates deduplicated output types and serializable expression trees
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"projection-generator/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "projection-generator:", err)
	}

	stop()
	os.Exit(cli.GetExitCode(err))
}
