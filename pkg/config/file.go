package config

import (
	"fmt"
	"os"
	"path/filepath"
)

func readConfig(path string) ([]byte, error) {
	pathInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if pathInfo.IsDir() {
		return nil, fmt.Errorf("%s: path is a directory", path)
	}
	if !pathInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: unknown file state", path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// ReadFile returns the raw contents of the configuration file at path.
// A missing file yields nil data and no error.
func ReadFile(path string) ([]byte, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}

	return readConfig(path)
}

// WriteFile writes the serialized document to path, creating parent
// directories as needed. Existing content is truncated in place; the write is
// not atomic and takes no lock, so concurrent writers race.
func WriteFile(path string, doc Document) error {
	b, err := doc.MarshalYAML()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	err = os.WriteFile(path, b, 0o644) //nolint:gosec // G306: config is meant to be shared.
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
