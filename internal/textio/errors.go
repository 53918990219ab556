// internal/textio/errors.go
package textio

import "fmt"

// ParseError locates a failure in an input file. Line and Col are 1-based;
// zero means unknown.
type ParseError struct {
	Path string
	Line int
	Col  int
	Err  error
}

func (e *ParseError) Error() string {
	name := DisplayName(e.Path)
	switch {
	case e.Line > 0 && e.Col > 0:
		return fmt.Sprintf("%s:%d:%d: %v", name, e.Line, e.Col, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %v", name, e.Line, e.Err)
	default:
		return fmt.Sprintf("%s: %v", name, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// Errorf builds a *ParseError for path:line from a format string.
// %w verbs are honored.
func Errorf(path string, line int, format string, a ...any) error {
	return &ParseError{Path: path, Line: line, Err: fmt.Errorf(format, a...)}
}
