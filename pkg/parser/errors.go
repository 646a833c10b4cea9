package parser

import "fmt"

// ParseError is a syntax error with the position of the offending token.
type ParseError struct {
	Message string
	Line    int
	Column  int
	Token   string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	if e.Token == "" {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d, column %d: %s (near %q)", e.Line, e.Column, e.Message, e.Token)
}

func newError(msg string, line, col int, token string) *ParseError {
	return &ParseError{
		Message: msg,
		Line:    line,
		Column:  col,
		Token:   token,
	}
}
