// Package cli parses command-line arguments, validates user input, and
// maps the compiler's error taxonomy onto process exit codes.
package cli
