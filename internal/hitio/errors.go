package hitio

import "fmt"

// FormatError reports a malformed record. Reads stop at the first one.
type FormatError struct {
	Source string // file name or other label for the input
	Line   int    // 1-based
	Field  string
	Value  string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: invalid %s %q: %v", e.Source, e.Line, e.Field, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
