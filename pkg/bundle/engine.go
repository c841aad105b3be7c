package bundle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aymanbagabas/go-udiff"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carldaws/poly/pkg/config"
	"github.com/carldaws/poly/pkg/log"
)

// ErrWrite is returned when a merged configuration cannot be persisted.
var ErrWrite = errors.New("write config")

// WriteError reports a failure to persist the merged configuration.
type WriteError struct {
	Err  error
	Path string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrWrite, e.Err}
}

// AppendDocument returns a copy of existing with every rule of b appended
// after the existing rules for the same action. Actions missing from
// existing are created. Rules are never deduplicated.
func AppendDocument(existing, b config.Document) config.Document {
	out := existing.Clone()
	for _, action := range b.Actions() {
		out[action] = append(out[action], b[action]...)
	}

	return out
}

// Result describes the effect of merging a bundle into a file.
type Result struct {
	Document config.Document
	Bundle   string
	Path     string
	Before   []byte
	After    []byte
	Scope    config.Scope
	Written  bool
}

// Changed reports whether the file content differs after the merge.
func (r *Result) Changed() bool {
	return !bytes.Equal(r.Before, r.After)
}

// Diff renders the change as a unified diff.
func (r *Result) Diff() string {
	return udiff.Unified(r.Path, r.Path, string(r.Before), string(r.After))
}

// Engine merges bundles from a [Store] into configuration files.
type Engine struct {
	store  Store
	tracer trace.Tracer
	paths  config.Paths
}

func NewEngine(store Store, paths config.Paths) *Engine {
	return &Engine{
		store:  store,
		paths:  paths,
		tracer: otel.Tracer("bundle"),
	}
}

// Plan computes the result of merging the named bundle into the file for
// scope, without writing anything.
//
// Project-local files are written without predicates: every rule in the file,
// not only the bundle's, loses its predicate. User-wide files keep them.
func (e *Engine) Plan(ctx context.Context, name string, scope config.Scope) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "plan", trace.WithAttributes(
		attribute.String("bundle", name),
		attribute.String("scope", scope.String()),
	))
	defer span.End()

	b, err := e.store.Lookup(name)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	target, err := e.paths.For(scope)
	if err != nil {
		return nil, err
	}

	before, err := config.ReadFile(target)
	if err != nil {
		return nil, &config.LoadError{Path: target, Err: err}
	}

	l := config.NewLoaderFromBytes(before)

	err = l.Validate()
	if err != nil {
		return nil, &config.LoadError{Path: target, Err: err}
	}

	existing, err := l.Load()
	if err != nil {
		return nil, &config.LoadError{Path: target, Err: err}
	}

	merged := AppendDocument(existing, b)
	if scope == config.ScopeProject {
		merged = merged.WithoutPredicates()
	}

	after, err := merged.MarshalYAML()
	if err != nil {
		return nil, err
	}

	log.WithContext(ctx).DebugContext(ctx, "planned bundle merge",
		slog.String("bundle", name),
		slog.String("path", target),
		slog.Int("actions", len(merged)),
	)

	return &Result{
		Document: merged,
		Bundle:   name,
		Path:     target,
		Before:   before,
		After:    after,
		Scope:    scope,
	}, nil
}

// Apply merges the named bundle into the file for scope and writes it.
// The write is not atomic and takes no lock; concurrent applies race.
func (e *Engine) Apply(ctx context.Context, name string, scope config.Scope) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "apply")
	defer span.End()

	res, err := e.Plan(ctx, name, scope)
	if err != nil {
		return nil, err
	}

	err = config.WriteFile(res.Path, res.Document)
	if err != nil {
		return nil, &WriteError{Path: res.Path, Err: err}
	}

	res.Written = true

	log.WithContext(ctx).DebugContext(ctx, "wrote bundle merge",
		slog.String("bundle", name),
		slog.String("path", res.Path),
	)

	return res, nil
}
