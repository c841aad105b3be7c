// Package bundle provides named rule templates for common technology stacks,
// and merges them into configuration files.
//
// Merging is strictly additive: every rule of the bundle is appended after the
// rules already defined for the same action, so applying a bundle twice
// duplicates its rules.
package bundle
