package config

import (
	"fmt"
	"log/slog"

	"github.com/carldaws/poly/pkg/yaml"
)

// Validator validates configuration data against a schema.
type Validator interface {
	Validate(data any) error
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*loaderOptions)

type loaderOptions struct {
	validator Validator
	colored   bool
}

// WithValidator sets a custom validator. A nil validator disables schema
// validation.
func WithValidator(v Validator) LoaderOpt {
	return func(o *loaderOptions) {
		o.validator = v
	}
}

// WithColor enables ANSI colors in annotated error sources.
func WithColor(colored bool) LoaderOpt {
	return func(o *loaderOptions) {
		o.colored = colored
	}
}

// LoadError is returned when a configuration file exists but cannot be used.
type LoadError struct {
	Err  error
	Path string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader parses and validates a single configuration document.
type Loader struct {
	validator Validator
	yamlError *yaml.ErrorWrapper
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] from byte data.
func NewLoaderFromBytes(data []byte, opts ...LoaderOpt) *Loader {
	options := &loaderOptions{
		validator: DefaultValidator,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Loader{
		data:      data,
		validator: options.validator,
		yamlError: yaml.NewErrorWrapper(
			yaml.WithSource(data),
			yaml.WithColor(options.colored),
		),
	}
}

// NewLoaderFromFile creates a [Loader] from a file path.
// A missing file yields a loader for an empty document.
func NewLoaderFromFile(path string, opts ...LoaderOpt) (*Loader, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	return NewLoaderFromBytes(data, opts...), nil
}

// Validate validates the configuration data against the schema.
func (l *Loader) Validate() error {
	var anyConfig any

	err := yaml.Unmarshal(l.data, &anyConfig)
	if err != nil {
		return l.yamlError.Wrap(err)
	}

	if anyConfig == nil || l.validator == nil {
		return nil
	}

	err = l.validator.Validate(anyConfig)
	if err != nil {
		return l.yamlError.Wrap(err)
	}

	return nil
}

// Load parses and returns the document. It does not validate; call
// [Loader.Validate] first.
func (l *Loader) Load() (Document, error) {
	doc := Document{}

	err := yaml.Unmarshal(l.data, &doc)
	if err != nil {
		return nil, l.yamlError.Wrap(err)
	}

	err = doc.Validate()
	if err != nil {
		return nil, l.yamlError.Wrap(err)
	}

	if doc == nil {
		doc = Document{}
	}

	return doc, nil
}

// LoadFile reads, validates and parses the configuration file at path.
// A missing file is an empty document. Anything else that prevents the file
// from being used is returned as a [*LoadError].
func LoadFile(path string, opts ...LoaderOpt) (Document, error) {
	l, err := NewLoaderFromFile(path, opts...)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	err = l.Validate()
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	doc, err := l.Load()
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	slog.Debug("loaded config",
		slog.String("path", path),
		slog.Int("actions", len(doc)),
	)

	return doc, nil
}

// LoadLayers loads the user-wide and project-local files and merges them.
// A layer that fails to load is treated as empty; its error is returned so
// the caller can report it. LoadLayers itself never fails.
func LoadLayers(paths Paths, opts ...LoaderOpt) (Document, []error) {
	var errs []error

	load := func(path string) Document {
		if path == "" {
			return Document{}
		}

		doc, err := LoadFile(path, opts...)
		if err != nil {
			slog.Debug("config layer ignored", slog.String("path", path), slog.Any("err", err))
			errs = append(errs, err)

			return Document{}
		}

		return doc
	}

	global := load(paths.Global)
	project := load(paths.Project)

	return Merge(global, project), errs
}
