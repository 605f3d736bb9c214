// Package info provides utility functions for manipulating info lines
// returned by the modem in response to AT commands, including the
// comma-delimited header rows produced by message listings.
package info

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformed indicates an info line does not follow the expected grammar.
var ErrMalformed = errors.New("malformed info line")

// HasPrefix returns true if the line begins with the info prefix for the command.
func HasPrefix(line, cmd string) bool {
	return strings.HasPrefix(line, cmd+":")
}

// TrimPrefix removes the command prefix, if any, and any intervening space
// from the info line.
func TrimPrefix(line, cmd string) string {
	return strings.TrimLeft(strings.TrimPrefix(line, cmd+":"), " ")
}

// Fields splits an info line into its comma-delimited fields.
//
// Quoted fields containing commas are split like any other; callers index
// the result by the positions the device documents for the command.
func Fields(line string) []string {
	return strings.Split(line, ",")
}

// Unquote removes all double quote characters from a field.
func Unquote(field string) string {
	return strings.ReplaceAll(field, "\"", "")
}
