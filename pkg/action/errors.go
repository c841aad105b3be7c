package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

var (
	// ErrNoMatch is returned when an action is not defined, or defines no rules.
	ErrNoMatch = errors.New("no command found")

	// ErrNoneMatched is returned when an action is defined but none of its
	// rules are eligible.
	ErrNoneMatched = errors.New("no matching command found")
)

// NoMatchError reports an action that the effective document does not define.
type NoMatchError struct {
	Action      string
	Suggestions []string
}

func (e *NoMatchError) Error() string {
	msg := fmt.Sprintf("no command found for '%s'", e.Action)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf("; did you mean '%s'?", strings.Join(e.Suggestions, "', '"))
	}

	return msg
}

func (e *NoMatchError) Unwrap() error {
	return ErrNoMatch
}

// NoneMatchedError reports an action whose rules were all ineligible.
type NoneMatchedError struct {
	Action string
}

func (e *NoneMatchedError) Error() string {
	return fmt.Sprintf("no matching command found for '%s': none of the test conditions matched", e.Action)
}

func (e *NoneMatchedError) Unwrap() error {
	return ErrNoneMatched
}

// maxSuggestions caps the names offered by [suggest].
const maxSuggestions = 3

// suggest returns the names that fuzzily match input, best first.
func suggest(input string, names []string) []string {
	if input == "" {
		return nil
	}

	matches := fuzzy.Find(input, names)

	out := make([]string, 0, min(len(matches), maxSuggestions))
	for _, m := range matches {
		if m.Str == input {
			continue
		}

		out = append(out, m.Str)
		if len(out) == maxSuggestions {
			break
		}
	}

	return out
}
