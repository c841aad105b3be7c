package cli

import (
	"fmt"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/carldaws/poly/pkg/highlight"
)

// showConfig prints the configuration in effect for the current directory:
// the user-wide file with every action defined by the project-local file
// replaced.
func (ra *RootArgs) showConfig(cmd *cobra.Command) error {
	doc, err := ra.LoadDocument(cmd)
	if err != nil {
		return err
	}

	b, err := doc.MarshalYAML()
	if err != nil {
		return err //nolint:wrapcheck // Return the original error.
	}

	out := string(b)

	w := cmd.OutOrStdout()
	if isTerminal(w) {
		out, err = highlight.New(highlight.LanguageYAML, termenv.NewOutput(w).ColorProfile()).Render(out)
		if err != nil {
			return fmt.Errorf("highlight config: %w", err)
		}
	}

	mustN(fmt.Fprint(w, out))

	return nil
}
