package bundle

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/carldaws/poly/pkg/config"
)

const ext = ".yaml"

//go:embed bundles/*.yaml
var embedded embed.FS

// ErrNotFound is returned when a bundle name is not known to a [Store].
var ErrNotFound = errors.New("bundle not found")

// NotFoundError reports an unknown bundle, along with the known ones.
type NotFoundError struct {
	Name       string
	Known      []string
	Suggestion string
}

func newNotFoundError(name string, known []string) *NotFoundError {
	e := &NotFoundError{Name: name, Known: known}
	if name == "" {
		return e
	}

	if matches := fuzzy.Find(name, known); len(matches) > 0 {
		e.Suggestion = matches[0].Str
	}

	return e
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("bundle '%s' not found", e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean '%s'?", e.Suggestion)
	}
	if len(e.Known) > 0 {
		msg += "; available bundles: " + strings.Join(e.Known, ", ")
	}

	return msg
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Store looks up bundles by name.
type Store interface {
	// Lookup returns the named bundle, or an error wrapping [ErrNotFound].
	Lookup(name string) (config.Document, error)
	// Names returns the known bundle names in sorted order.
	Names() ([]string, error)
}

// FSStore reads bundles from "<name>.yaml" files in a directory of an [fs.FS].
type FSStore struct {
	fsys fs.FS
	dir  string
}

// NewFSStore creates an [FSStore] reading from dir within fsys.
func NewFSStore(fsys fs.FS, dir string) *FSStore {
	return &FSStore{fsys: fsys, dir: dir}
}

// Embedded returns the store of bundles built into poly.
func Embedded() *FSStore {
	return NewFSStore(embedded, "bundles")
}

func (s *FSStore) Lookup(name string) (config.Document, error) {
	p := path.Join(s.dir, name+ext)
	if name == "" || strings.ContainsAny(name, `/\`) || !fs.ValidPath(p) {
		return nil, s.notFound(name)
	}

	data, err := fs.ReadFile(s.fsys, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, s.notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read bundle %q: %w", name, err)
	}

	l := config.NewLoaderFromBytes(data)

	err = l.Validate()
	if err != nil {
		return nil, fmt.Errorf("bundle %q: %w", name, err)
	}

	doc, err := l.Load()
	if err != nil {
		return nil, fmt.Errorf("bundle %q: %w", name, err)
	}

	return doc, nil
}

func (s *FSStore) Names() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bundle directory: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ext {
			continue
		}

		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}

	slices.Sort(names)

	return names, nil
}

func (s *FSStore) notFound(name string) error {
	names, _ := s.Names()

	return newNotFoundError(name, names)
}

// ChainStore consults several stores in order.
type ChainStore struct {
	stores []Store
}

// Chain returns a [Store] where the first store that knows a name wins.
func Chain(stores ...Store) *ChainStore {
	return &ChainStore{stores: stores}
}

func (c *ChainStore) Lookup(name string) (config.Document, error) {
	for _, s := range c.stores {
		doc, err := s.Lookup(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}

		return doc, err
	}

	names, _ := c.Names()

	return nil, newNotFoundError(name, names)
}

// Names returns the sorted union of every store's names. Stores that fail
// to list are skipped, and the first such error is returned.
func (c *ChainStore) Names() ([]string, error) {
	var (
		names    []string
		firstErr error
	)

	for _, s := range c.stores {
		n, err := s.Names()
		if err != nil && firstErr == nil {
			firstErr = err
		}

		names = append(names, n...)
	}

	slices.Sort(names)

	return slices.Compact(names), firstErr
}
