package parser

import (
	"strings"
	"unicode"

	"github.com/leapstack-labs/cteshift/pkg/dialect"
	"github.com/leapstack-labs/cteshift/pkg/token"
)

// RawStatement is one statement split out of a script, carrying enough
// position context to report errors against the original input.
type RawStatement struct {
	Text       string         // trimmed statement text, comments included
	Index      int            // 0-based position within the script
	Pos        token.Position // position of Text's first byte in the input
	Terminated bool           // the statement ended with ';'
	Separator  string         // trailing batch separator, as written ("GO")
}

// AbsolutePosition maps a position relative to Text onto the original
// script using the statement's own position.
func (r RawStatement) AbsolutePosition(rel token.Position) token.Position {
	return absolutePosition(r.Pos, rel)
}

// Split breaks a SQL script into statements. A ';' at parenthesis depth
// zero ends a statement, as does a batch separator standing alone on its
// own line in dialects that have one. Semicolons inside string literals,
// quoted identifiers, comments, and parentheses never split.
func Split(sql string, d *dialect.Dialect) ([]RawStatement, error) {
	if d == nil {
		d = dialect.Default()
	}
	tokens, err := Tokenize(sql, d)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, &ParseError{
			Pos:     token.Position{Line: 1, Column: 1},
			Message: ErrEmptyInput,
		}
	}

	var (
		stmts     []RawStatement
		openStack []token.Token // unmatched '(' tokens
		segStart  int           // byte offset where the current segment begins
	)

	flush := func(end int, terminated bool, sep string) bool {
		seg := sql[segStart:end]
		text := strings.TrimSpace(seg)
		if text == "" {
			return false
		}
		lead := strings.IndexFunc(seg, func(r rune) bool { return !unicode.IsSpace(r) })
		stmts = append(stmts, RawStatement{
			Text:       text,
			Index:      len(stmts),
			Pos:        positionAt(sql, segStart+lead),
			Terminated: terminated,
			Separator:  sep,
		})
		return true
	}

	for _, tok := range tokens {
		switch tok.Type {
		case token.LPAREN:
			openStack = append(openStack, tok)
			continue
		case token.RPAREN:
			if len(openStack) == 0 {
				return nil, &ParseError{Pos: tok.Pos, Message: ErrUnbalancedCloseParen}
			}
			openStack = openStack[:len(openStack)-1]
			continue
		case token.SEMICOLON:
			if len(openStack) == 0 {
				flush(tok.Pos.Offset, true, "")
				segStart = tok.End
			}
			continue
		}

		if len(openStack) == 0 && isBatchSeparator(d, tok) && aloneOnLine(sql, tok) {
			if !flush(tok.Pos.Offset, false, tok.Literal) && len(stmts) > 0 && stmts[len(stmts)-1].Separator == "" {
				// separator directly after a ';'-terminated statement
				stmts[len(stmts)-1].Separator = tok.Literal
			}
			segStart = tok.End
		}
	}

	if len(openStack) > 0 {
		return nil, &ParseError{Pos: openStack[0].Pos, Message: ErrUnbalancedOpenParen}
	}

	flush(len(sql), false, "")
	if len(stmts) == 0 {
		return nil, &ParseError{
			Pos:     token.Position{Line: 1, Column: 1},
			Message: ErrEmptyInput,
		}
	}
	return stmts, nil
}

// isBatchSeparator reports whether tok is the dialect's batch separator
// word, written unquoted.
func isBatchSeparator(d *dialect.Dialect, tok token.Token) bool {
	if d.BatchSeparator == "" || tok.Quote != 0 {
		return false
	}
	if tok.Type != token.IDENT && !token.IsKeyword(tok.Type) {
		return false
	}
	return strings.EqualFold(tok.Literal, d.BatchSeparator)
}

// aloneOnLine reports whether nothing but whitespace precedes tok on its
// line and nothing but whitespace or a comment follows it.
func aloneOnLine(sql string, tok token.Token) bool {
	for i := tok.Pos.Offset - 1; i >= 0; i-- {
		c := sql[i]
		if c == '\n' {
			break
		}
		if c != ' ' && c != '\t' && c != '\r' {
			return false
		}
	}
	for i := tok.End; i < len(sql); i++ {
		c := sql[i]
		if c == '\n' {
			break
		}
		if c == ' ' || c == '\t' || c == '\r' {
			continue
		}
		return strings.HasPrefix(sql[i:], "--") || strings.HasPrefix(sql[i:], "/*")
	}
	return true
}

// positionAt computes the 1-based line and column of a byte offset.
func positionAt(s string, offset int) token.Position {
	line, col := 1, 1
	for i := 0; i < offset && i < len(s); i++ {
		if s[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return token.Position{Line: line, Column: col, Offset: offset}
}
