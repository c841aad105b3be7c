package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/carldaws/poly/pkg/bundle"
	"github.com/carldaws/poly/pkg/config"
	"github.com/carldaws/poly/pkg/execs"
	"github.com/carldaws/poly/pkg/log"
)

const (
	cmdName = "poly"
	cmdDesc = `Run the right command for the project you are in.`

	cmdExamples = `  # Run the "test" action for the current directory:
  poly test

  # Forward extra arguments to every command that runs:
  poly test -run TestFoo -v

  # Show which commands each action would run here:
  poly list

  # Add the Go bundle to ~/poly.yaml:
  poly add go --global

  # Print the merged configuration:
  poly --show-config`
)

type RootArgs struct {
	LogLevel      string
	LogFormat     string
	GlobalConfig  string
	ProjectConfig string
	BundleDir     string
	Shell         string
	ShowConfig    bool
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.GlobalConfig, "global-config", "", "Path to the user-wide config (default ~/"+config.FileName+")")
	cmd.PersistentFlags().
		StringVar(&ra.ProjectConfig, "project-config", "", "Path to the project-local config (default ./"+config.FileName+")")
	cmd.PersistentFlags().
		StringVar(&ra.BundleDir, "bundle-dir", "", "Directory of extra bundles, consulted before the built-in ones")
	cmd.PersistentFlags().
		StringVar(&ra.Shell, "shell", execs.DefaultShell, "Shell used to run predicates and commands")

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	for _, name := range []string{"global-config", "project-config"} {
		err = cmd.MarkPersistentFlagFilename(name, "yaml", "yml")
		if err != nil {
			panic(fmt.Errorf("mark %s flag: %w", name, err))
		}
	}

	err = cmd.MarkPersistentFlagDirname("bundle-dir")
	if err != nil {
		panic(fmt.Errorf("mark bundle-dir flag: %w", err))
	}
}

// Paths returns the config file locations, applying any flag overrides.
func (ra *RootArgs) Paths() (config.Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Paths{}, fmt.Errorf("get working directory: %w", err)
	}

	paths := config.DefaultPaths(wd)
	if ra.GlobalConfig != "" {
		paths.Global = ra.GlobalConfig
	}
	if ra.ProjectConfig != "" {
		paths.Project = ra.ProjectConfig
	}

	return paths, nil
}

// BundleStore returns the built-in bundles, preceded by --bundle-dir if set.
func (ra *RootArgs) BundleStore() bundle.Store {
	if ra.BundleDir == "" {
		return bundle.Embedded()
	}

	return bundle.Chain(bundle.NewFSStore(os.DirFS(ra.BundleDir), "."), bundle.Embedded())
}

// NewShell returns the shell configured by --shell, wired to cmd's streams.
func (ra *RootArgs) NewShell(cmd *cobra.Command) (*execs.Shell, error) {
	argv, err := execs.ParseShell(ra.Shell)
	if err != nil {
		return nil, fmt.Errorf("%w: --shell: %w", log.ErrInvalidArgument, err)
	}

	return execs.NewShell(argv,
		execs.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
	), nil
}

// LoadDocument loads and merges both config layers. Layers that fail to load
// are reported on stderr and ignored.
func (ra *RootArgs) LoadDocument(cmd *cobra.Command) (config.Document, error) {
	paths, err := ra.Paths()
	if err != nil {
		return nil, err
	}

	doc, errs := config.LoadLayers(paths, config.WithColor(isTerminal(cmd.ErrOrStderr())))
	for _, err := range errs {
		slog.Debug("ignoring config layer", slog.Any("err", err))
		mustN(fmt.Fprintf(cmd.ErrOrStderr(), "Error loading config: %v\n", err))
	}

	return doc, nil
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:               cmdName + " <action> [args...]",
		Short:             cmdDesc,
		Example:           cmdExamples,
		PersistentPreRunE: setupLogging(args),
		Args:              cobra.ArbitraryArgs,
		ValidArgsFunction: actionCompletion(args),
		RunE:              runAction(args),
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	args.AddFlags(cmd)

	cmd.Flags().BoolVar(&args.ShowConfig, "show-config", false, "Print the effective configuration and exit")

	// Everything after the action name is forwarded to its commands.
	cmd.Flags().SetInterspersed(false)

	setVersion(cmd)

	// Only help, list and add are reserved; every other name is an action.
	cmd.AddCommand(
		NewListCmd(args),
		NewAddCmd(args),
	)

	bindEnvVars(cmd)

	return cmd
}

func setupLogging(rc *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), rc.LogLevel, rc.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		logger := slog.New(logHandler)
		slog.SetDefault(logger)
		cmd.SetContext(log.NewContext(cmd.Context(), logger))

		return nil
	}
}

type fdWriter interface {
	Fd() uintptr
}

func isTerminal(w any) bool {
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: file descriptors fit in an int.
}
