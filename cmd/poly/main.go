package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/carldaws/poly/internal/cli"
	"github.com/carldaws/poly/pkg/version"
)

func main() {
	err := fang.Execute(context.Background(), cli.NewRootCmd(),
		fang.WithVersion(version.GetVersion()),
		fang.WithCommit(version.Revision),
		fang.WithErrorHandler(cli.ErrorHandler),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	)
	if err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
