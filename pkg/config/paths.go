package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the base name of both the user-wide and project-local files.
const FileName = "poly.yaml"

// ErrNoHomeDir is returned when the user-wide file is needed but the home
// directory cannot be determined.
var ErrNoHomeDir = errors.New("home directory not found")

// Scope selects which configuration file an operation targets.
type Scope int

const (
	// ScopeProject is the file in the working directory.
	ScopeProject Scope = iota
	// ScopeGlobal is the file in the user's home directory.
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeProject:
		return "project-local"
	case ScopeGlobal:
		return "user-wide"
	}

	return fmt.Sprintf("Scope(%d)", int(s))
}

// Paths holds the locations of the two configuration layers.
// An empty Global means the home directory is unknown.
type Paths struct {
	Global  string
	Project string
}

// DefaultPaths returns the user-wide path under $HOME and the project-local
// path under dir.
func DefaultPaths(dir string) Paths {
	p := Paths{
		Project: filepath.Join(dir, FileName),
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		slog.Debug("no home directory, skipping user-wide config", slog.Any("err", err))

		return p
	}

	p.Global = filepath.Join(home, FileName)

	return p
}

// For returns the file path for scope.
func (p Paths) For(scope Scope) (string, error) {
	switch scope {
	case ScopeProject:
		return p.Project, nil

	case ScopeGlobal:
		if p.Global == "" {
			return "", ErrNoHomeDir
		}

		return p.Global, nil
	}

	return "", fmt.Errorf("unknown scope: %s", scope)
}
