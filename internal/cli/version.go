package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/carldaws/poly/pkg/version"
)

// setVersion enables --version. Build information is a flag rather than a
// subcommand so that "version" stays available as an action name.
func setVersion(cmd *cobra.Command) {
	cmd.Version = version.GetVersion()
	// The summary is static text; escape it for cobra's template engine.
	cmd.SetVersionTemplate(strings.ReplaceAll(version.String(), "{{", `{{"{{"}}`))
}
