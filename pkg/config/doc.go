// Package config provides the poly configuration document and its layering.
//
// A configuration file maps action names to an ordered list of rules:
//
//	build:
//	  - predicate: test -f Makefile
//	    command: make
//	  - command: echo 'No build system found'
//
// Two files are consulted on every invocation: the user-wide file in the home
// directory and the project-local file in the working directory, both named
// [FileName]. They are combined with [Merge], where the project-local list for
// an action replaces the user-wide list for that action entirely.
package config
