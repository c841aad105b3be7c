package cli

import (
	"fmt"
	"io"

	"github.com/carldaws/poly/pkg/bundle"
)

// printBundles writes the name of every bundle in store, one per line.
func printBundles(w io.Writer, store bundle.Store) error {
	names, err := store.Names()
	if err != nil {
		return err //nolint:wrapcheck // Return the original error.
	}

	for _, name := range names {
		mustN(fmt.Fprintln(w, name))
	}

	return nil
}
