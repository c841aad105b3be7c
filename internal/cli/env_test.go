package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carldaws/poly/internal/cli"
)

func TestBindEnvVars(t *testing.T) {
	tcs := map[string]struct {
		envVars       map[string]string
		wantLogLevel  string
		wantLogFormat string
		wantShell     string
		args          []string
	}{
		"environment variables are bound when no args provided": {
			envVars: map[string]string{
				"POLY_LOG_LEVEL":  "debug",
				"POLY_LOG_FORMAT": "json",
				"POLY_SHELL":      "bash -o pipefail",
			},
			args:          []string{},
			wantLogLevel:  "debug",
			wantLogFormat: "json",
			wantShell:     "bash -o pipefail",
		},
		"command line args take precedence over environment variables": {
			envVars: map[string]string{
				"POLY_LOG_LEVEL":  "debug",
				"POLY_LOG_FORMAT": "json",
			},
			args:          []string{"--log-level", "error", "--log-format", "text"},
			wantLogLevel:  "error",
			wantLogFormat: "text",
			wantShell:     "sh",
		},
		"partial environment variable override": {
			envVars: map[string]string{
				"POLY_LOG_LEVEL": "warn",
			},
			args:          []string{"--log-format", "json"},
			wantLogLevel:  "warn",
			wantLogFormat: "json",
			wantShell:     "sh",
		},
		"no environment variables uses defaults": {
			envVars:       map[string]string{},
			args:          []string{},
			wantLogLevel:  "info",
			wantLogFormat: "text",
			wantShell:     "sh",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			for key, val := range tc.envVars {
				t.Setenv(key, val)
			}

			cmd := cli.NewRootCmd()
			cmd.SetArgs(tc.args)

			err := cmd.ParseFlags(tc.args)
			require.NoError(t, err)

			logLevel, err := cmd.Flags().GetString("log-level")
			require.NoError(t, err)
			assert.Equal(t, tc.wantLogLevel, logLevel)

			logFormat, err := cmd.Flags().GetString("log-format")
			require.NoError(t, err)
			assert.Equal(t, tc.wantLogFormat, logFormat)

			shell, err := cmd.Flags().GetString("shell")
			require.NoError(t, err)
			assert.Equal(t, tc.wantShell, shell)
		})
	}
}

func TestEnvironmentVariableUsageUpdate(t *testing.T) {
	t.Parallel()

	cmd := cli.NewRootCmd()

	for flag, env := range map[string]string{
		"log-level":      "$POLY_LOG_LEVEL",
		"global-config":  "$POLY_GLOBAL_CONFIG",
		"project-config": "$POLY_PROJECT_CONFIG",
		"bundle-dir":     "$POLY_BUNDLE_DIR",
	} {
		f := cmd.PersistentFlags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Contains(t, f.Usage, env)
	}

	add, _, err := cmd.Find([]string{"add"})
	require.NoError(t, err)

	dryRun := add.Flags().Lookup("dry-run")
	require.NotNil(t, dryRun)
	assert.Contains(t, dryRun.Usage, "$POLY_ADD_DRY_RUN")

	showConfig := cmd.Flags().Lookup("show-config")
	require.NotNil(t, showConfig)
	assert.Contains(t, showConfig.Usage, "$POLY_SHOW_CONFIG")
}

func TestBindEnvVars_SubcommandFlags(t *testing.T) {
	tcs := map[string]struct {
		envVars    map[string]string
		wantGlobal bool
		wantDryRun bool
	}{
		"unprefixed names are ignored": {
			envVars: map[string]string{
				"POLY_GLOBAL":  "true",
				"POLY_DRY_RUN": "true",
			},
		},
		"prefixed names are bound": {
			envVars: map[string]string{
				"POLY_ADD_GLOBAL":  "true",
				"POLY_ADD_DRY_RUN": "true",
			},
			wantGlobal: true,
			wantDryRun: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			for key, val := range tc.envVars {
				t.Setenv(key, val)
			}

			cmd := cli.NewRootCmd()

			add, _, err := cmd.Find([]string{"add"})
			require.NoError(t, err)

			global, err := add.Flags().GetBool("global")
			require.NoError(t, err)
			assert.Equal(t, tc.wantGlobal, global)

			dryRun, err := add.Flags().GetBool("dry-run")
			require.NoError(t, err)
			assert.Equal(t, tc.wantDryRun, dryRun)
		})
	}
}
