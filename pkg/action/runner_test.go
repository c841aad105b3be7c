package action_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/carldaws/poly/pkg/action"
	"github.com/carldaws/poly/pkg/config"
	"github.com/carldaws/poly/pkg/execs"
)

// fakeShell records every script it is asked to run. Scripts exit 0 unless
// listed in status or fail.
type fakeShell struct {
	status   map[string]int
	fail     map[string]error
	calls    []string
	canceled []bool
}

func (f *fakeShell) Run(ctx context.Context, script string) (int, error) {
	f.calls = append(f.calls, script)
	f.canceled = append(f.canceled, ctx.Err() != nil)

	if err, ok := f.fail[script]; ok {
		return 1, fmt.Errorf("%w: %w", execs.ErrSpawn, err)
	}

	return f.status[script], nil
}

func newRunner(sh action.Shell) (*action.Runner, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer

	r := action.NewRunner(
		action.WithShell(sh),
		action.WithOutput(&out),
		action.WithErrorOutput(&errOut),
	)

	return r, &out, &errOut
}

func TestRunner_Run_Order(t *testing.T) {
	t.Parallel()

	doc := config.Document{
		"build": {
			{Predicate: "p1", Command: "c1"},
			{Predicate: "p2", Command: "c2"},
			{Predicate: "p3", Command: "c3"},
		},
	}
	sh := &fakeShell{status: map[string]int{"p2": 1}}
	r, out, _ := newRunner(sh)

	got, err := r.Run(t.Context(), doc, "build", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "c1", "p2", "p3", "c3"}, sh.calls)
	assert.Equal(t, 2, got.Eligible)
	assert.Equal(t, []action.Execution{
		{Command: "c1"},
		{Command: "c3"},
	}, got.Executed)
	assert.Equal(t, 0, got.ExitCode)
	assert.Equal(t, "Executing: c1\nExecuting: c3\n", out.String())
}

func TestRunner_Run_PredicateEvaluatedEveryTime(t *testing.T) {
	t.Parallel()

	doc := config.Document{
		"test": {{Predicate: "p", Command: "c"}},
	}
	sh := &fakeShell{}
	r, _, _ := newRunner(sh)

	for range 3 {
		_, err := r.Run(t.Context(), doc, "test", nil)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"p", "c", "p", "c", "p", "c"}, sh.calls)
}

func TestRunner_Run_Errors(t *testing.T) {
	t.Parallel()

	doc := config.Document{
		"test":  {{Predicate: "p1", Command: "c1"}, {Predicate: "p2", Command: "c2"}},
		"build": {{Command: "make"}},
		"lint":  {},
	}

	tcs := map[string]struct {
		sh        *fakeShell
		wantErr   error
		wantText  string
		wantCalls []string
		action    string
		wantSugg  []string
	}{
		"undefined action": {
			sh:       &fakeShell{},
			action:   "deploy",
			wantErr:  action.ErrNoMatch,
			wantText: "no command found for 'deploy'",
		},
		"empty action": {
			sh:       &fakeShell{},
			action:   "lint",
			wantErr:  action.ErrNoMatch,
			wantText: "no command found for 'lint'",
		},
		"suggestion": {
			sh:       &fakeShell{},
			action:   "tst",
			wantErr:  action.ErrNoMatch,
			wantText: "no command found for 'tst'; did you mean 'test'?",
			wantSugg: []string{"test"},
		},
		"no predicate holds": {
			sh:        &fakeShell{status: map[string]int{"p1": 1, "p2": 2}},
			action:    "test",
			wantErr:   action.ErrNoneMatched,
			wantText:  "no matching command found for 'test': none of the test conditions matched",
			wantCalls: []string{"p1", "p2"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r, out, _ := newRunner(tc.sh)

			_, err := r.Run(t.Context(), doc, tc.action, nil)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.wantText, err.Error())
			assert.Equal(t, tc.wantCalls, tc.sh.calls)
			assert.Empty(t, out.String())

			var noMatch *action.NoMatchError
			if errors.As(err, &noMatch) {
				assert.Equal(t, tc.wantSugg, nilIfEmpty(noMatch.Suggestions))
			}
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}

	return s
}

func TestRunner_Run_FailureContinues(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		sh       *fakeShell
		wantExit []int
		wantCode int
	}{
		"first fails": {
			sh:       &fakeShell{status: map[string]int{"c1": 2}},
			wantExit: []int{2, 0},
			wantCode: 0,
		},
		"last fails": {
			sh:       &fakeShell{status: map[string]int{"c2": 7}},
			wantExit: []int{0, 7},
			wantCode: 7,
		},
		"spawn failure": {
			sh:       &fakeShell{fail: map[string]error{"c1": os.ErrNotExist}},
			wantExit: []int{1, 0},
			wantCode: 0,
		},
	}

	doc := config.Document{
		"test": {{Command: "c1"}, {Command: "c2"}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r, _, errOut := newRunner(tc.sh)

			got, err := r.Run(t.Context(), doc, "test", nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"c1", "c2"}, tc.sh.calls)
			require.Len(t, got.Executed, 2)

			for i, want := range tc.wantExit {
				assert.Equal(t, want, got.Executed[i].ExitCode)
			}

			assert.Equal(t, tc.wantCode, got.ExitCode)
			assert.True(t, got.Failed())
			assert.NotEmpty(t, errOut.String())
		})
	}
}

func TestRunner_Run_FailureReport(t *testing.T) {
	t.Parallel()

	sh := &fakeShell{status: map[string]int{"make": 2}}
	r, _, errOut := newRunner(sh)

	got, err := r.Run(t.Context(), config.Document{"build": {{Command: "make"}}}, "build", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ExitCode)
	assert.Equal(t, "command failed with exit code 2: make\n", errOut.String())
}

func TestRunner_Run_SpawnFailureRecorded(t *testing.T) {
	t.Parallel()

	sh := &fakeShell{fail: map[string]error{"c": os.ErrPermission}}
	r, _, _ := newRunner(sh)

	got, err := r.Run(t.Context(), config.Document{"run": {{Command: "c"}}}, "run", nil)
	require.NoError(t, err)
	require.Len(t, got.Executed, 1)
	require.ErrorIs(t, got.Executed[0].Err, execs.ErrSpawn)
	assert.Equal(t, 1, got.ExitCode)
}

func TestRunner_Run_PredicateSpawnFailure(t *testing.T) {
	t.Parallel()

	doc := config.Document{
		"run": {
			{Predicate: "broken", Command: "c1"},
			{Command: "c2"},
		},
	}
	sh := &fakeShell{fail: map[string]error{"broken": os.ErrNotExist}}
	r, _, errOut := newRunner(sh)

	got, err := r.Run(t.Context(), doc, "run", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "c2"}, sh.calls)
	assert.Equal(t, 1, got.Eligible)
	assert.Contains(t, errOut.String(), "predicate could not run: broken")
}

func TestRunner_Run_InertRules(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		rules     []config.RuleEntry
		wantCalls []string
		wantErr   error
	}{
		"only inert": {
			rules:   []config.RuleEntry{{Predicate: "p", Command: ""}, {Command: "  "}},
			wantErr: action.ErrNoneMatched,
		},
		"inert skipped": {
			rules:     []config.RuleEntry{{Predicate: "p", Command: ""}, {Command: "c"}},
			wantCalls: []string{"c"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			sh := &fakeShell{}
			r, _, _ := newRunner(sh)

			_, err := r.Run(t.Context(), config.Document{"x": tc.rules}, "x", nil)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tc.wantCalls, sh.calls)
		})
	}
}

func TestRunner_Run_ForwardsArgs(t *testing.T) {
	t.Parallel()

	doc := config.Document{
		"say": {{Predicate: "true", Command: "echo hi"}},
	}
	sh := &fakeShell{}
	r, out, _ := newRunner(sh)

	_, err := r.Run(t.Context(), doc, "say", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"true", "echo hi a b"}, sh.calls)
	assert.Equal(t, "Executing: echo hi a b\n", out.String())
}

func TestRunner_Run_IgnoresCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	sh := &fakeShell{}
	r, _, _ := newRunner(sh)

	_, err := r.Run(ctx, config.Document{"x": {{Predicate: "p", Command: "c"}}}, "x", nil)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, sh.canceled)
}

func TestRunner_List(t *testing.T) {
	t.Parallel()

	doc := config.Document{
		"test": {
			{Predicate: "yes", Command: "go test ./..."},
			{Predicate: "no", Command: "npm test"},
			{Command: "echo fallback"},
		},
		"build": {{Predicate: "no", Command: "make"}},
		"lint":  {{Command: ""}},
	}
	sh := &fakeShell{status: map[string]int{"no": 1}}
	r, out, _ := newRunner(sh)

	got := r.List(t.Context(), doc)

	assert.Equal(t, []action.Listing{
		{Action: "build"},
		{Action: "lint"},
		{Action: "test", Commands: []string{"go test ./...", "echo fallback"}},
	}, got)
	assert.Equal(t, []string{"no", "yes", "no"}, sh.calls)
	assert.Empty(t, out.String())

	assert.Equal(t, "  build: (no matching commands)", got[0].String())
	assert.Equal(t, "  test: go test ./..., echo fallback", got[2].String())
}

func TestRunner_RealShell(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0o600))

	var out, errOut bytes.Buffer

	sh := execs.NewShell(nil, execs.WithDir(dir), execs.WithStdio(nil, &out, &errOut))
	r := action.NewRunner(action.WithShell(sh), action.WithOutput(&out), action.WithErrorOutput(&errOut))

	doc := config.Document{
		"build": {
			{Predicate: "test -f go.mod", Command: "printf go >> ran.txt"},
			{Predicate: "test -f package.json", Command: "printf node >> ran.txt"},
			{Command: "printf ' any' >> ran.txt; exit 4"},
		},
		"probe": {
			{Predicate: "touch probed", Command: "printf probe >> ran.txt"},
		},
	}

	got, err := r.Run(t.Context(), doc, "build", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, got.ExitCode)

	ran, err := os.ReadFile(filepath.Join(dir, "ran.txt"))
	require.NoError(t, err)
	assert.Equal(t, "go any", string(ran))
	assert.Contains(t, errOut.String(), "command failed with exit code 4")

	listings := r.List(t.Context(), doc)
	require.Len(t, listings, 2)
	assert.Equal(t, []string{"printf probe >> ran.txt"}, listings[1].Commands)

	// Listing runs predicates but never commands.
	assert.FileExists(t, filepath.Join(dir, "probed"))

	ran, err = os.ReadFile(filepath.Join(dir, "ran.txt"))
	require.NoError(t, err)
	assert.Equal(t, "go any", string(ran))
}

func TestRunner_Spans(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	t.Cleanup(func() {
		require.NoError(t, tp.Shutdown(context.Background()))
	})

	r := action.NewRunner(
		action.WithShell(&fakeShell{}),
		action.WithOutput(&bytes.Buffer{}),
		action.WithTracerProvider(tp),
	)

	_, err := r.Run(t.Context(), config.Document{"x": {{Command: "c"}}}, "x", []string{"a"})
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "run", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("action", "x"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("eligible", 1))
}
