// Package execs runs shell scripts on behalf of poly.
//
// Every predicate and command is handed to a [Shell] as a single script, in
// the same way `sh -c <script>` would run it, with the caller's standard
// streams, working directory and environment inherited.
package execs
