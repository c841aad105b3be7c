package config

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/carldaws/poly/pkg/yaml"
)

// ErrEmptyAction is returned when a document contains an empty action name.
var ErrEmptyAction = errors.New("action name must not be empty")

// RuleEntry is a single potential command invocation for an action.
type RuleEntry struct {
	// Predicate is a shell condition gating the rule. The rule is eligible when
	// `sh -c <predicate>` exits with status 0. An empty predicate always passes.
	Predicate string `json:"predicate,omitempty" jsonschema:"title=Predicate" jsonschema_description:"Shell condition; the rule runs when it exits 0." yaml:"predicate,omitempty"`
	// Command is the shell command template to run when the rule is eligible.
	Command string `json:"command" jsonschema:"title=Command" jsonschema_description:"Shell command run with sh -c; extra CLI arguments are appended." yaml:"command"`
}

// UnmarshalYAML accepts the legacy "test" key as an alias for "predicate".
func (r *RuleEntry) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		Predicate *string `yaml:"predicate"`
		Test      *string `yaml:"test"`
		Command   string  `yaml:"command"`
	}

	err := unmarshal(&raw)
	if err != nil {
		return err
	}

	r.Command = raw.Command
	r.Predicate = ""

	switch {
	case raw.Predicate != nil:
		r.Predicate = *raw.Predicate
	case raw.Test != nil:
		r.Predicate = *raw.Test
	}

	return nil
}

func (RuleEntry) JSONSchemaExtend(jss *jsonschema.Schema) {
	_, _ = jss.Properties.Set("test", &jsonschema.Schema{
		Type:        "string",
		Title:       "Test",
		Description: "Deprecated alias for predicate.",
		Deprecated:  true,
	})
}

// HasPredicate reports whether the rule is gated by a predicate.
func (r RuleEntry) HasPredicate() bool {
	return r.Predicate != ""
}

// Inert reports whether the rule has no command. Inert rules are never
// evaluated or executed.
func (r RuleEntry) Inert() bool {
	return strings.TrimSpace(r.Command) == ""
}

func (r RuleEntry) String() string {
	if r.HasPredicate() {
		return fmt.Sprintf("[%s] %s", r.Predicate, r.Command)
	}

	return r.Command
}

// Document maps action names to their ordered rules. The order of rules
// within an action is the order in which they are considered.
type Document map[string][]RuleEntry

// Actions returns the action names in sorted order.
func (d Document) Actions() []string {
	return slices.Sorted(maps.Keys(d))
}

// Rules returns the rules for action, and whether the action is defined.
func (d Document) Rules(action string) ([]RuleEntry, bool) {
	rules, ok := d[action]

	return rules, ok
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for action, rules := range d {
		out[action] = slices.Clone(rules)
	}

	return out
}

// WithoutPredicates returns a copy of the document with every predicate removed.
func (d Document) WithoutPredicates() Document {
	out := d.Clone()
	for _, rules := range out {
		for i := range rules {
			rules[i].Predicate = ""
		}
	}

	return out
}

// Validate checks constraints that the schema cannot express.
func (d Document) Validate() error {
	if _, ok := d[""]; ok {
		return yaml.NewError(ErrEmptyAction)
	}

	return nil
}

// MarshalYAML serializes the document with actions in sorted order, so that
// writing the same document twice produces identical bytes.
func (d Document) MarshalYAML() ([]byte, error) {
	ordered := make(yaml.MapSlice, 0, len(d))
	for _, action := range d.Actions() {
		rules := d[action]
		if rules == nil {
			rules = []RuleEntry{}
		}

		ordered = append(ordered, yaml.MapItem{Key: action, Value: rules})
	}

	b := &bytes.Buffer{}
	if len(ordered) == 0 {
		b.WriteString("{}\n")

		return b.Bytes(), nil
	}

	enc := yaml.NewEncoder(b)

	err := enc.Encode(ordered)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return nil, fmt.Errorf("close yaml encoder: %w", err)
	}

	return b.Bytes(), nil
}

// Merge combines a base document with an override document. Every action
// present in override takes the override's rules verbatim; actions only in
// base keep the base's rules. Neither input is modified.
func Merge(base, override Document) Document {
	out := base.Clone()
	for action, rules := range override {
		out[action] = slices.Clone(rules)
	}

	return out
}
