package parser

import (
	"fmt"

	"github.com/leapstack-labs/cteshift/pkg/token"
)

// ParseError represents a structural parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken      = "unexpected token %s, expected %s"
	ErrUnterminatedString   = "unterminated string literal"
	ErrUnterminatedIdent    = "unterminated quoted identifier"
	ErrUnterminatedComment  = "unterminated block comment"
	ErrUnbalancedCloseParen = "unbalanced closing parenthesis"
	ErrUnbalancedOpenParen  = "unbalanced parentheses at end of input"
	ErrEmptyInput           = "empty input: no SQL statements found"
)

// absolutePosition maps a position relative to a statement's text onto the
// statement's place in the original script. An invalid base (as when a
// statement is parsed standalone) leaves the relative position untouched.
func absolutePosition(base, rel token.Position) token.Position {
	if !base.IsValid() {
		return rel
	}
	abs := token.Position{Offset: base.Offset + rel.Offset}
	if rel.Line <= 1 {
		abs.Line = base.Line
		abs.Column = base.Column + rel.Column - 1
	} else {
		abs.Line = base.Line + rel.Line - 1
		abs.Column = rel.Column
	}
	return abs
}
