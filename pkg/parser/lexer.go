package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/cteshift/pkg/dialect"
	"github.com/leapstack-labs/cteshift/pkg/token"
)

// Lexer tokenizes SQL input according to a dialect's lexical profile.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	dialect *dialect.Dialect
	err     *LexError // first lexical error encountered
}

// NewLexer creates a new Lexer for the given input.
// A nil dialect falls back to the ANSI profile.
func NewLexer(input string, d *dialect.Dialect) *Lexer {
	if d == nil {
		d = dialect.Default()
	}
	l := &Lexer{
		input:   input,
		line:    1,
		col:     0,
		dialect: d,
	}
	l.readChar()
	return l
}

// Err returns the first lexical error encountered, if any.
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

func (l *Lexer) setErr(pos token.Position, msg string) {
	if l.err == nil {
		l.err = &LexError{Pos: pos, Message: msg}
	}
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token. The zero byte span of unknown
// punctuation is preserved via ILLEGAL tokens rather than reported as an
// error: unmodeled syntax rides through statement text untouched.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	var tok token.Token
	tok.Pos = pos

	if l.ch != 0 && l.dialect.IsStringQuote(l.ch) {
		tok.Type = token.STRING
		tok.Literal = l.readString(l.ch)
		tok.End = l.pos
		return tok
	}
	if q, ok := l.dialect.QuoteFor(l.ch); ok {
		tok.Type = token.IDENT
		tok.Literal = l.readQuotedIdent(q)
		tok.Quote = q.Start
		tok.End = l.pos
		return tok
	}
	if l.ch == '$' && l.dialect.DollarStrings {
		if lit, ok := l.readDollarString(); ok {
			tok.Type = token.STRING
			tok.Literal = lit
			tok.End = l.pos
			return tok
		}
	}

	switch l.ch {
	case 0:
		tok.Type = token.EOF
		tok.Literal = ""
		tok.End = l.pos
		return tok
	case '+':
		tok = l.newToken(token.PLUS, "+")
	case '-':
		tok = l.newToken(token.MINUS, "-")
	case '*':
		tok = l.newToken(token.STAR, "*")
	case '/':
		tok = l.newToken(token.SLASH, "/")
	case '%':
		tok = l.newToken(token.PERCENT, "%")
	case '=':
		tok = l.newToken(token.EQ, "=")
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = token.Token{Type: token.LE, Literal: "<=", Pos: pos}
		case '>':
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "<>", Pos: pos}
		default:
			tok = l.newToken(token.LT, "<")
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.GE, Literal: ">=", Pos: pos}
		} else {
			tok = l.newToken(token.GT, ">")
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "!=", Pos: pos}
		} else {
			tok = l.newToken(token.ILLEGAL, string(l.ch))
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok = token.Token{Type: token.DPIPE, Literal: "||", Pos: pos}
		} else {
			tok = l.newToken(token.ILLEGAL, string(l.ch))
		}
	case '.':
		tok = l.newToken(token.DOT, ".")
	case ',':
		tok = l.newToken(token.COMMA, ",")
	case '(':
		tok = l.newToken(token.LPAREN, "(")
	case ')':
		tok = l.newToken(token.RPAREN, ")")
	case '[':
		tok = l.newToken(token.LBRACKET, "[")
	case ']':
		tok = l.newToken(token.RBRACKET, "]")
	case ';':
		tok = l.newToken(token.SEMICOLON, ";")
	default:
		switch {
		case isIdentStart(l.ch):
			lit := l.readIdentifier()
			tok.Type = token.LookupIdent(strings.ToLower(lit))
			tok.Literal = lit
			tok.End = l.pos
			return tok
		case isDigit(l.ch):
			tok.Type = token.NUMBER
			tok.Literal = l.readNumber()
			tok.End = l.pos
			return tok
		default:
			tok = l.newToken(token.ILLEGAL, string(l.ch))
		}
	}

	l.readChar()
	tok.End = l.pos
	return tok
}

// newToken creates a new token at the current position.
func (l *Lexer) newToken(tokenType token.TokenType, literal string) token.Token {
	return token.Token{Type: tokenType, Literal: literal, Pos: l.currentPos()}
}

// skipWhitespaceAndComments skips whitespace and comments. Comment bytes
// are not dropped from the script: they survive in the raw statement text
// and only disappear from the token stream.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		if l.matchLineComment() {
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			l.skipBlockComment()
			continue
		}

		break
	}
}

// matchLineComment consumes a line comment if one opens at the cursor.
func (l *Lexer) matchLineComment() bool {
	if l.pos >= len(l.input) {
		return false
	}
	rest := l.input[l.pos:]
	for _, opener := range l.dialect.LineComments {
		if strings.HasPrefix(rest, opener) {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			return true
		}
	}
	return false
}

// skipBlockComment consumes a /* */ comment, honoring nesting for
// dialects that allow it.
func (l *Lexer) skipBlockComment() {
	start := l.currentPos()
	l.readChar() // skip '/'
	l.readChar() // skip '*'

	depth := 1
	for depth > 0 {
		switch {
		case l.ch == 0:
			l.setErr(start, ErrUnterminatedComment)
			return
		case l.ch == '*' && l.peekChar() == '/':
			l.readChar()
			l.readChar()
			depth--
		case l.dialect.NestedBlockComments && l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			depth++
		default:
			l.readChar()
		}
	}
}

// readString reads a string literal opened by quote.
// A doubled quote is always an escape; backslash escapes apply only in
// dialects that use them.
func (l *Lexer) readString(quote byte) string {
	start := l.currentPos()
	l.readChar() // skip opening quote

	var result strings.Builder
	for l.ch != 0 {
		if l.ch == quote {
			if l.peekChar() == quote {
				result.WriteByte(quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			return result.String()
		}
		if l.ch == '\\' && l.dialect.BackslashEscapes {
			l.readChar()
			if l.ch == 0 {
				break
			}
			result.WriteByte(l.ch)
			l.readChar()
			continue
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	l.setErr(start, ErrUnterminatedString)
	return result.String()
}

// readQuotedIdent reads a quoted identifier opened by q.Start.
// A doubled closing character is an escape: "col""name" -> col"name.
func (l *Lexer) readQuotedIdent(q dialect.QuotePair) string {
	start := l.currentPos()
	l.readChar() // skip opening quote

	var result strings.Builder
	for l.ch != 0 {
		if l.ch == q.End {
			if l.peekChar() == q.End {
				result.WriteByte(q.End)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			return result.String()
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	l.setErr(start, ErrUnterminatedIdent)
	return result.String()
}

// readDollarString scans $tag$...$tag$ quoting. It reports false without
// consuming input when the cursor does not open a dollar string, so '$'
// can still begin an ordinary identifier or parameter.
func (l *Lexer) readDollarString() (string, bool) {
	rest := l.input[l.pos:]
	tagEnd := strings.IndexByte(rest[1:], '$')
	if tagEnd < 0 {
		return "", false
	}
	tag := rest[:tagEnd+2]
	for i := 1; i < len(tag)-1; i++ {
		c := tag[i]
		if c != '_' && !isLetter(c) && !(i > 1 && isDigit(c)) {
			return "", false
		}
	}

	start := l.currentPos()
	body := rest[len(tag):]
	closing := strings.Index(body, tag)
	if closing < 0 {
		for l.ch != 0 {
			l.readChar()
		}
		l.setErr(start, ErrUnterminatedString)
		return body, true
	}
	total := len(tag) + closing + len(tag)
	for i := 0; i < total; i++ {
		l.readChar()
	}
	return body[:closing], true
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // skip '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if l.ch == 'e' || l.ch == 'E' {
		l.readChar() // skip 'e' or 'E'
		if l.ch == '+' || l.ch == '-' {
			l.readChar() // skip sign
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return l.input[start:l.pos]
}

// isIdentStart returns true if ch can begin an unquoted identifier.
// '#' and '@' cover temp-table and variable prefixes; when a dialect uses
// '#' for comments those bytes are consumed before identifier scanning.
func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '_' || ch == '#' || ch == '@' || ch == '$' || ch >= utf8.RuneSelf
}

// isIdentPart returns true if ch can continue an unquoted identifier.
func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// isLetter returns true if ch is a letter.
func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch))
}

// isDigit returns true if ch is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize scans the input into its full token sequence, excluding the
// terminal EOF token.
func Tokenize(input string, d *dialect.Dialect) ([]token.Token, error) {
	l := NewLexer(input, d)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		tokens = append(tokens, tok)
	}
	if err := l.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}
