package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bindEnvVars binds POLY_<FLAG_NAME> environment variables to the flags of
// cmd, e.g. "--shell" reads $POLY_SHELL. Flags of subcommands include the
// subcommand name, e.g. "add --global" reads $POLY_ADD_GLOBAL.
//
// Arguments take precedence over environment variables, which take precedence
// over default values. Each flag's usage is annotated with its variable name.
func bindEnvVars(cmd *cobra.Command) {
	visit := func(prefix string) func(*pflag.Flag) {
		return func(flag *pflag.Flag) {
			bindFlagToEnv(flag, flagToEnvName(prefix, flag.Name))
		}
	}

	cmd.PersistentFlags().VisitAll(visit(cmdName))
	cmd.Flags().VisitAll(visit(cmdName))

	for _, sub := range cmd.Commands() {
		sub.LocalNonPersistentFlags().VisitAll(visit(cmdName + "_" + sub.Name()))
	}
}

func bindFlagToEnv(flag *pflag.Flag, envName string) {
	if !strings.Contains(flag.Usage, envName) {
		flag.Usage = fmt.Sprintf("%s ($%s)", flag.Usage, envName)
	}

	if flag.Changed {
		return
	}

	envValue, ok := os.LookupEnv(envName)
	if !ok {
		return
	}

	err := flag.Value.Set(envValue)
	if err != nil {
		// Keep the default rather than failing.
		slog.Error("failed to set flag from environment variable",
			slog.String("flag", flag.Name),
			slog.String("env", envName),
			slog.String("value", envValue),
			slog.Any("error", err),
		)
	}
}

// flagToEnvName converts a flag name to its environment variable name.
// Example: ("poly", "global-config") -> "POLY_GLOBAL_CONFIG".
func flagToEnvName(prefix, flagName string) string {
	envName := strings.ReplaceAll(prefix+"_"+flagName, "-", "_")

	return strings.ToUpper(envName)
}
