package action

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carldaws/poly/pkg/config"
	"github.com/carldaws/poly/pkg/execs"
	"github.com/carldaws/poly/pkg/log"
)

// Shell runs a script and reports its exit status. It is satisfied by
// [*execs.Shell].
type Shell interface {
	Run(ctx context.Context, script string) (int, error)
}

// Execution records one command that was run.
type Execution struct {
	// Err is set when the command could not be started.
	Err      error
	Command  string
	ExitCode int
}

// Outcome summarizes a call to [Runner.Run].
type Outcome struct {
	Action   string
	Executed []Execution
	// Eligible counts the rules whose predicates held.
	Eligible int
	// ExitCode is the status of the last command executed, or zero if none ran.
	ExitCode int
}

// Failed reports whether any executed command did not exit cleanly.
func (o *Outcome) Failed() bool {
	for _, e := range o.Executed {
		if e.ExitCode != 0 {
			return true
		}
	}

	return false
}

// Listing is the result of evaluating one action without running it.
type Listing struct {
	Action   string
	Commands []string
}

func (l Listing) String() string {
	if len(l.Commands) == 0 {
		return fmt.Sprintf("  %s: (no matching commands)", l.Action)
	}

	return fmt.Sprintf("  %s: %s", l.Action, strings.Join(l.Commands, ", "))
}

// Runner evaluates predicates and executes commands for actions.
type Runner struct {
	shell  Shell
	tracer trace.Tracer
	out    io.Writer
	errOut io.Writer
	styles styles
}

type styles struct {
	banner  lipgloss.Style
	failure lipgloss.Style
}

// RunnerOpt configures a [Runner].
type RunnerOpt func(*Runner)

// WithShell sets the shell used for predicates and commands.
func WithShell(sh Shell) RunnerOpt {
	return func(r *Runner) {
		r.shell = sh
	}
}

// WithOutput sets where "Executing:" banners are written.
func WithOutput(w io.Writer) RunnerOpt {
	return func(r *Runner) {
		r.out = w
	}
}

// WithErrorOutput sets where failures are reported.
func WithErrorOutput(w io.Writer) RunnerOpt {
	return func(r *Runner) {
		r.errOut = w
	}
}

// WithTracerProvider sets the provider spans are recorded with.
func WithTracerProvider(tp trace.TracerProvider) RunnerOpt {
	return func(r *Runner) {
		r.tracer = tp.Tracer("action")
	}
}

func NewRunner(opts ...RunnerOpt) *Runner {
	r := &Runner{
		tracer: otel.Tracer("action"),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.shell == nil {
		r.shell = execs.NewShell(nil)
	}

	outRenderer := lipgloss.NewRenderer(r.out)
	errRenderer := lipgloss.NewRenderer(r.errOut)
	r.styles = styles{
		banner:  outRenderer.NewStyle().Bold(true),
		failure: errRenderer.NewStyle().Foreground(lipgloss.Color("1")),
	}

	return r
}

// Run executes every eligible rule of action, in order, appending args to
// each command. A failing command is reported and the remaining rules still
// run; the outcome's ExitCode is the status of the last command executed.
//
// Run returns a [*NoMatchError] if the action has no rules, and a
// [*NoneMatchedError] (alongside the outcome) if no rule was eligible.
// Cancellation of ctx is ignored once Run has started.
func (r *Runner) Run(ctx context.Context, doc config.Document, action string, args []string) (*Outcome, error) {
	ctx = context.WithoutCancel(ctx)

	ctx, span := r.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("action", action),
		attribute.StringSlice("args", args),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(slog.String("action", action))

	rules, _ := doc.Rules(action)
	if len(rules) == 0 {
		return nil, &NoMatchError{
			Action:      action,
			Suggestions: suggest(action, doc.Actions()),
		}
	}

	outcome := &Outcome{Action: action}

	for i, rule := range rules {
		if rule.Inert() {
			logger.DebugContext(ctx, "skipping rule without command", slog.Int("rule", i))

			continue
		}

		if !r.eligible(ctx, rule) {
			logger.DebugContext(ctx, "predicate did not hold",
				slog.Int("rule", i),
				slog.String("predicate", rule.Predicate),
			)

			continue
		}

		outcome.Eligible++

		ex := r.execute(ctx, BuildCommand(rule.Command, args))
		outcome.Executed = append(outcome.Executed, ex)
		outcome.ExitCode = ex.ExitCode
	}

	span.SetAttributes(
		attribute.Int("eligible", outcome.Eligible),
		attribute.Int("status", outcome.ExitCode),
	)

	if outcome.Eligible == 0 {
		return outcome, &NoneMatchedError{Action: action}
	}

	return outcome, nil
}

// List evaluates the predicates of every action, in sorted order, and returns
// the commands that would run. Predicates are executed exactly as [Runner.Run]
// would execute them, including any side effects; commands are not.
func (r *Runner) List(ctx context.Context, doc config.Document) []Listing {
	ctx = context.WithoutCancel(ctx)

	ctx, span := r.tracer.Start(ctx, "list")
	defer span.End()

	listings := make([]Listing, 0, len(doc))

	for _, action := range doc.Actions() {
		l := Listing{Action: action}

		for _, rule := range doc[action] {
			if rule.Inert() || !r.eligible(ctx, rule) {
				continue
			}

			l.Commands = append(l.Commands, rule.Command)
		}

		listings = append(listings, l)
	}

	return listings
}

// eligible evaluates the rule's predicate. A predicate that cannot be run is
// reported and treated as false.
func (r *Runner) eligible(ctx context.Context, rule config.RuleEntry) bool {
	if !rule.HasPredicate() {
		return true
	}

	status, err := r.shell.Run(ctx, rule.Predicate)
	if err != nil {
		log.WithContext(ctx).WarnContext(ctx, "predicate could not run",
			slog.String("predicate", rule.Predicate),
			slog.Any("err", err),
		)
		fmt.Fprintln(r.errOut, r.styles.failure.Render(
			fmt.Sprintf("predicate could not run: %s: %v", rule.Predicate, err),
		))

		return false
	}

	return status == 0
}

func (r *Runner) execute(ctx context.Context, command string) Execution {
	fmt.Fprintln(r.out, r.styles.banner.Render("Executing: "+command))

	status, err := r.shell.Run(ctx, command)
	if err != nil {
		fmt.Fprintln(r.errOut, r.styles.failure.Render(
			fmt.Sprintf("command could not run: %s: %v", command, err),
		))

		return Execution{Command: command, ExitCode: max(status, 1), Err: err}
	}

	if status != 0 {
		fmt.Fprintln(r.errOut, r.styles.failure.Render(
			fmt.Sprintf("command failed with exit code %d: %s", status, command),
		))
	}

	return Execution{Command: command, ExitCode: status}
}
