package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/carldaws/poly/pkg/bundle"
	"github.com/carldaws/poly/pkg/config"
	"github.com/carldaws/poly/pkg/highlight"
)

// ErrMissingBundle is returned when `poly add` is called without a bundle name.
var ErrMissingBundle = errors.New("missing bundle name")

type AddArgs struct {
	*RootArgs

	Global bool
	DryRun bool
	List   bool
}

func (aa *AddArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&aa.Global, "global", false, "Add to the user-wide config instead of the project-local one")
	cmd.Flags().BoolVar(&aa.DryRun, "dry-run", false, "Print the change as a diff without writing it")
	cmd.Flags().BoolVar(&aa.List, "list", false, "List the available bundles")
}

func (aa *AddArgs) Scope() config.Scope {
	if aa.Global {
		return config.ScopeGlobal
	}

	return config.ScopeProject
}

func NewAddCmd(ra *RootArgs) *cobra.Command {
	aa := &AddArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:   "add <bundle>",
		Short: "Add the commands of a bundle to a config file",
		Long: `Add the commands of a bundle to a config file.

The bundle's rules are appended after any existing rules for the same action;
adding a bundle twice duplicates them. The project-local file is written
without predicates, so every rule in it always applies. Use --global to add to
the user-wide file, which keeps them.`,
		Example: `  # Add the Rails bundle to ./poly.yaml:
  poly add rails

  # Preview adding the Go bundle to ~/poly.yaml:
  poly add go --global --dry-run

  # List the available bundles:
  poly add --list`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}

			names, _ := ra.BundleStore().Names()

			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			store := ra.BundleStore()

			if aa.List {
				return printBundles(cmd.OutOrStdout(), store)
			}

			if len(args) == 0 {
				names, _ := store.Names()

				return fmt.Errorf("%w; usage: %s add <bundle> [--global]; available bundles: %s",
					ErrMissingBundle, cmdName, strings.Join(names, ", "))
			}

			paths, err := ra.Paths()
			if err != nil {
				return err
			}

			engine := bundle.NewEngine(store, paths)
			w := cmd.OutOrStdout()

			if aa.DryRun {
				res, err := engine.Plan(cmd.Context(), args[0], aa.Scope())
				if err != nil {
					return err //nolint:wrapcheck // Return the original error.
				}

				return printDiff(w, res)
			}

			res, err := engine.Apply(cmd.Context(), args[0], aa.Scope())
			if err != nil {
				return err //nolint:wrapcheck // Return the original error.
			}

			mustN(fmt.Fprintf(w, "Added %s commands to %s\n", res.Bundle, res.Path))

			return nil
		},
	}

	aa.AddFlags(cmd)

	return cmd
}

func printDiff(w io.Writer, res *bundle.Result) error {
	if !res.Changed() {
		mustN(fmt.Fprintf(w, "No changes to %s\n", res.Path))

		return nil
	}

	diff := res.Diff()
	if isTerminal(w) {
		out, err := highlight.New(highlight.LanguageDiff, termenv.NewOutput(w).ColorProfile()).Render(diff)
		if err != nil {
			return fmt.Errorf("highlight diff: %w", err)
		}

		diff = out
	}

	mustN(fmt.Fprint(w, diff))

	return nil
}
