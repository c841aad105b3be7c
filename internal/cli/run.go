package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carldaws/poly/pkg/action"
	"github.com/carldaws/poly/pkg/config"
)

// ExitError carries the exit status of a command that has already reported
// its own failure.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func (ra *RootArgs) newRunner(cmd *cobra.Command) (*action.Runner, error) {
	sh, err := ra.NewShell(cmd)
	if err != nil {
		return nil, err
	}

	return action.NewRunner(
		action.WithShell(sh),
		action.WithOutput(cmd.OutOrStdout()),
		action.WithErrorOutput(cmd.ErrOrStderr()),
	), nil
}

func runAction(ra *RootArgs) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if ra.ShowConfig {
			return ra.showConfig(cmd)
		}

		if len(args) == 0 {
			must(cmd.Help())

			return &ExitError{Code: 1}
		}

		doc, err := ra.LoadDocument(cmd)
		if err != nil {
			return err
		}

		runner, err := ra.newRunner(cmd)
		if err != nil {
			return err
		}

		outcome, err := runner.Run(cmd.Context(), doc, args[0], args[1:])
		if errors.Is(err, action.ErrNoMatch) {
			return fmt.Errorf("%w\nmake sure it is defined in ./%s or ~/%s", err, config.FileName, config.FileName)
		}
		if err != nil {
			return err //nolint:wrapcheck // Return the original error.
		}

		if outcome.ExitCode != 0 {
			return &ExitError{Code: outcome.ExitCode}
		}

		return nil
	}
}

func actionCompletion(ra *RootArgs) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveDefault
		}

		paths, err := ra.Paths()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		doc, _ := config.LoadLayers(paths)

		return doc.Actions(), cobra.ShellCompDirectiveNoFileComp
	}
}
