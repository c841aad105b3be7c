package execs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carldaws/poly/pkg/log"
)

// DefaultShell is the interpreter used when none is configured.
const DefaultShell = "sh"

var (
	// ErrSpawn is returned when a process could not be started or waited on.
	ErrSpawn = errors.New("spawn")

	// ErrEmptyShell is returned when a shell specification has no words.
	ErrEmptyShell = errors.New("empty shell")
)

// ParseShell splits a shell specification such as "bash -o pipefail" into
// its argv prefix. The script is passed after a trailing "-c".
func ParseShell(spec string) ([]string, error) {
	argv, err := shellwords.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse shell %q: %w", spec, err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyShell
	}

	return argv, nil
}

// Shell runs scripts through an interpreter, one at a time, and waits for
// each to finish.
type Shell struct {
	tracer trace.Tracer
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	dir    string
	argv   []string
	env    []string
}

// ShellOpt configures a [Shell].
type ShellOpt func(*Shell)

// WithStdio replaces the inherited standard streams.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) ShellOpt {
	return func(s *Shell) {
		s.stdin = stdin
		s.stdout = stdout
		s.stderr = stderr
	}
}

// WithDir sets the working directory. Empty means the caller's.
func WithDir(dir string) ShellOpt {
	return func(s *Shell) {
		s.dir = dir
	}
}

// WithEnv sets the environment. Nil means the caller's.
func WithEnv(env []string) ShellOpt {
	return func(s *Shell) {
		s.env = env
	}
}

// WithTracerProvider sets the provider spans are recorded with.
func WithTracerProvider(tp trace.TracerProvider) ShellOpt {
	return func(s *Shell) {
		s.tracer = tp.Tracer("execs")
	}
}

// NewShell creates a [Shell] invoking argv followed by "-c" and the script.
// An empty argv selects [DefaultShell].
func NewShell(argv []string, opts ...ShellOpt) *Shell {
	if len(argv) == 0 {
		argv = []string{DefaultShell}
	}

	s := &Shell{
		tracer: otel.Tracer("execs"),
		argv:   argv,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run executes script and returns its exit status. A process terminated by a
// signal reports status 1. If the process cannot be started, Run returns
// status 1 and an error wrapping [ErrSpawn].
func (s *Shell) Run(ctx context.Context, script string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "exec", trace.WithAttributes(
		attribute.String("shell", s.String()),
		attribute.String("script", script),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(
		slog.String("shell", s.String()),
		slog.String("script", script),
	)

	start := time.Now()

	args := append(append([]string{}, s.argv[1:]...), "-c", script)

	//nolint:gosec // G204: Running user-configured scripts is the point.
	cmd := exec.CommandContext(ctx, s.argv[0], args...)
	cmd.Dir = s.dir
	cmd.Env = s.env
	cmd.Stdin = s.stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	err := cmd.Run()
	if err == nil {
		logger.DebugContext(ctx, "script exited",
			slog.Int("status", 0),
			slog.Duration("duration", time.Since(start)),
		)
		span.SetAttributes(attribute.Int("status", 0))

		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		status := exitErr.ExitCode()
		if status < 0 {
			status = 1
		}

		logger.DebugContext(ctx, "script exited",
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		)
		span.SetAttributes(attribute.Int("status", status))
		span.SetStatus(codes.Error, exitErr.String())

		return status, nil
	}

	logger.DebugContext(ctx, "script could not start", slog.Any("err", err))
	span.RecordError(err)
	span.SetStatus(codes.Error, "spawn failed")

	return 1, fmt.Errorf("%w: %w", ErrSpawn, err)
}

func (s *Shell) String() string {
	return strings.Join(s.argv, " ")
}
