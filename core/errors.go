package core

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation failure reasons.
const (
	ReasonInsert = "both key and value are required"
	ReasonSearch = "key is required for search"
	ReasonDelete = "key is required for deletion"
)

// ValidationError reports blank input to an operation.  It is never
// returned as a failure; the operation logs it and carries it in
// Result.Err.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// logLine formats the error the way it appears in the operation log.
func (e *ValidationError) logLine() string {
	r, n := utf8.DecodeRuneInString(e.Reason)
	return "Error: " + string(unicode.ToUpper(r)) + e.Reason[n:]
}

// blank returns true if s is empty after trimming whitespace.  The
// whitespace set is the one browsers strip from form input: U+FEFF
// counts, U+0085 does not.
func blank(s string) bool {
	return strings.TrimFunc(s, isTrimSpace) == ""
}

func isTrimSpace(r rune) bool {
	if r == '\u0085' {
		return false
	}
	return unicode.IsSpace(r) || r == '\uFEFF'
}
