package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewListCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the commands each action would run here",
		Long: `Show the commands each action would run in the current directory.

Predicates are evaluated exactly as they would be when running an action, so
any side effects they have will happen. Commands are not run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := ra.LoadDocument(cmd)
			if err != nil {
				return err
			}

			runner, err := ra.newRunner(cmd)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			mustN(fmt.Fprintln(w, "Available commands:"))

			for _, l := range runner.List(cmd.Context(), doc) {
				mustN(fmt.Fprintln(w, l.String()))
			}

			return nil
		},
	}
}
