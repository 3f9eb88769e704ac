// Package parser splits SQL scripts into statements and extracts the
// structure temp-table conversion needs: statement kind, existing WITH
// prologues, SELECT ... INTO targets, CREATE TABLE shapes, INSERT targets,
// DROP targets, and every dotted identifier chain.
//
// It is deliberately not a full SQL grammar. Constructs it does not model
// stay byte-exact inside the statement text and round-trip losslessly;
// only the clauses that drive conversion are recognized structurally.
//
// # Usage
//
//	raws, err := parser.Split(script, d)
//	for _, raw := range raws {
//	    stmt, err := parser.Parse(raw, d)
//	    ...
//	}
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/cteshift/pkg/dialect"
	"github.com/leapstack-labs/cteshift/pkg/token"
)

// Parser extracts the structural view of a single statement.
type Parser struct {
	raw     RawStatement
	tokens  []token.Token
	pos     int
	eof     token.Token
	dialect *dialect.Dialect
	errors  []error
}

// Parse parses one raw statement. A nil dialect falls back to the ANSI
// profile. Errors carry positions relative to the original script when the
// statement came from Split.
func Parse(raw RawStatement, d *dialect.Dialect) (*Statement, error) {
	if d == nil {
		d = dialect.Default()
	}
	tokens, err := Tokenize(raw.Text, d)
	if err != nil {
		if lexErr, ok := err.(*LexError); ok {
			return nil, &LexError{
				Pos:     absolutePosition(raw.Pos, lexErr.Pos),
				Message: lexErr.Message,
			}
		}
		return nil, err
	}

	p := &Parser{
		raw:    raw,
		tokens: tokens,
		eof: token.Token{
			Type: token.EOF,
			Pos:  positionAt(raw.Text, len(raw.Text)),
			End:  len(raw.Text),
		},
		dialect: d,
	}
	stmt := p.parseStatement()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// ---------- Token Helpers ----------

func (p *Parser) at(i int) token.Token {
	if i < 0 || i >= len(p.tokens) {
		return p.eof
	}
	return p.tokens[i]
}

// cur returns the current token.
func (p *Parser) cur() token.Token {
	return p.at(p.pos)
}

// next advances to the next token.
func (p *Parser) next() {
	p.pos++
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.cur().Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.next()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.next()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.cur().Type, t))
	return false
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     absolutePosition(p.raw.Pos, p.cur().Pos),
		Message: msg,
	})
}

// ---------- Statement Parsing ----------

func (p *Parser) parseStatement() *Statement {
	stmt := &Statement{Raw: p.raw, Tokens: p.tokens}

	if p.check(token.WITH) {
		stmt.With = p.parseWithClause()
	}

	switch p.cur().Type {
	case token.SELECT:
		stmt.Kind = KindSelect
		stmt.Into = p.parseSelectInto()
	case token.INSERT:
		stmt.Kind = KindInsert
		stmt.Insert = p.parseInsertInto()
	case token.UPDATE:
		stmt.Kind = KindUpdate
	case token.DELETE:
		stmt.Kind = KindDelete
	case token.MERGE:
		stmt.Kind = KindOther
	case token.CREATE:
		stmt.Kind = KindCreate
		stmt.Create = p.parseCreateTable()
	case token.DROP:
		stmt.Kind = KindDrop
		stmt.Drop = p.parseDropTable()
	case token.LPAREN:
		// (SELECT ...) UNION (SELECT ...): classify by the first token
		// inside the parentheses
		if p.firstInsideParens().Type == token.SELECT {
			stmt.Kind = KindSelect
		}
	default:
		stmt.Kind = KindOther
	}

	stmt.Refs = scanRefs(p.tokens)
	return stmt
}

// parseWithClause reads WITH [RECURSIVE] name [(cols)] AS (...) [, ...].
// The cursor ends on the statement that follows the prologue.
func (p *Parser) parseWithClause() *WithClause {
	with := &WithClause{InsertOffset: p.cur().End}
	p.next() // WITH

	if p.check(token.RECURSIVE) {
		with.Recursive = true
		with.InsertOffset = p.cur().End
		p.next()
	}

	for {
		if !isNameToken(p.cur()) {
			p.addError(fmt.Sprintf("expected CTE name, found %s", p.cur().Type))
			return with
		}
		with.Names = append(with.Names, p.cur().Literal)
		p.next()

		if p.check(token.LPAREN) { // optional column list
			p.skipParens()
		}
		if !p.expect(token.AS) {
			return with
		}
		// PostgreSQL materialization hints
		p.match(token.NOT)
		if p.check(token.IDENT) && p.cur().Quote == 0 && strings.EqualFold(p.cur().Literal, "materialized") {
			p.next()
		}
		if !p.check(token.LPAREN) {
			p.addError(fmt.Sprintf("expected ( after AS in WITH clause, found %s", p.cur().Type))
			return with
		}
		p.skipParens()

		if !p.match(token.COMMA) {
			return with
		}
	}
}

// parseSelectInto scans a SELECT body for a top-level INTO clause, which
// must precede the top-level FROM. Nested SELECTs are skipped by depth.
func (p *Parser) parseSelectInto() *IntoClause {
	p.next() // SELECT
	depth := 0
	for !p.check(token.EOF) {
		switch p.cur().Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		case token.FROM:
			if depth == 0 {
				return nil
			}
		case token.INTO:
			if depth == 0 {
				return p.parseIntoTarget()
			}
		}
		p.next()
	}
	return nil
}

// parseIntoTarget reads the INTO clause at the cursor, recording the span
// to excise: from the end of the preceding token through the target.
func (p *Parser) parseIntoTarget() *IntoClause {
	clauseStart := p.at(p.pos - 1).End
	p.next() // INTO

	ref, ok := p.parseTableRef()
	if !ok {
		p.addError(fmt.Sprintf("expected table name after INTO, found %s", p.cur().Type))
		return nil
	}
	return &IntoClause{
		Target: ref,
		Clause: token.Span{Start: clauseStart, End: ref.Span.End},
	}
}

// createModifiers are words that may appear between CREATE and TABLE.
var createModifiers = map[string]bool{
	"replace":   true,
	"unlogged":  true,
	"transient": true,
	"volatile":  true,
}

// parseCreateTable reads CREATE [modifiers] TABLE [IF NOT EXISTS] target
// [(columns)] [AS body]. CREATE statements for other object types
// (views, indexes, functions) return nil without error.
func (p *Parser) parseCreateTable() *CreateTable {
	p.next() // CREATE
	ct := &CreateTable{}

	for !p.check(token.TABLE) {
		switch {
		case p.check(token.TEMP) || p.check(token.TEMPORARY):
			ct.Temp = true
		case p.check(token.GLOBAL) || p.check(token.LOCAL) || p.check(token.OR):
		case p.check(token.IDENT) && p.cur().Quote == 0 && createModifiers[strings.ToLower(p.cur().Literal)]:
		default:
			return nil // not a plain CREATE TABLE
		}
		p.next()
	}
	p.next() // TABLE

	if p.match(token.IF) {
		p.match(token.NOT)
		p.match(token.EXISTS)
		ct.IfNotExists = true
	}

	ref, ok := p.parseTableRef()
	if !ok {
		p.addError(fmt.Sprintf("expected table name after CREATE TABLE, found %s", p.cur().Type))
		return nil
	}
	ct.Target = ref

	if p.check(token.LPAREN) { // column definitions
		p.skipParens()
	}
	if p.match(token.AS) {
		ct.HasBody = true
		ct.Body = p.bodySpan()
	}
	return ct
}

// parseInsertInto reads INSERT [INTO] target [(columns)] and records where
// the source body begins.
func (p *Parser) parseInsertInto() *InsertInto {
	p.next() // INSERT
	p.match(token.INTO) // T-SQL allows INSERT without INTO

	ref, ok := p.parseTableRef()
	if !ok {
		p.addError(fmt.Sprintf("expected table name after INSERT, found %s", p.cur().Type))
		return nil
	}
	ins := &InsertInto{Target: ref}

	if p.check(token.LPAREN) && !p.parenOpensQuery() {
		p.skipParens() // column list
	}
	ins.Body = token.Span{Start: p.cur().Pos.Offset, End: len(p.raw.Text)}
	return ins
}

// parseDropTable reads DROP TABLE [IF EXISTS] target [, ...]. DROP
// statements for other object types return nil without error.
func (p *Parser) parseDropTable() *DropTable {
	p.next() // DROP
	if !p.match(token.TABLE) {
		return nil
	}

	dt := &DropTable{}
	if p.match(token.IF) {
		p.match(token.EXISTS)
		dt.IfExists = true
	}

	for {
		ref, ok := p.parseTableRef()
		if !ok {
			p.addError(fmt.Sprintf("expected table name after DROP TABLE, found %s", p.cur().Type))
			return dt
		}
		dt.Targets = append(dt.Targets, ref)
		if !p.match(token.COMMA) {
			return dt
		}
	}
}

// parseTableRef reads a dotted identifier chain at the cursor.
func (p *Parser) parseTableRef() (TableRef, bool) {
	if !isNameToken(p.cur()) {
		return TableRef{}, false
	}
	ref := TableRef{Parts: []token.Token{p.cur()}}
	p.next()

	for p.check(token.DOT) && isNameToken(p.at(p.pos+1)) {
		p.next() // '.'
		ref.Parts = append(ref.Parts, p.cur())
		p.next()
	}
	ref.Span = token.Span{
		Start: ref.Parts[0].Pos.Offset,
		End:   ref.Parts[len(ref.Parts)-1].End,
	}
	return ref, true
}

// bodySpan spans from the cursor to the end of the statement, unwrapped
// from one level of parentheses when they enclose the whole remainder.
func (p *Parser) bodySpan() token.Span {
	if p.check(token.LPAREN) {
		if close := matchingParen(p.tokens, p.pos); close == len(p.tokens)-1 {
			return token.Span{Start: p.cur().End, End: p.tokens[close].Pos.Offset}
		}
	}
	return token.Span{Start: p.cur().Pos.Offset, End: len(p.raw.Text)}
}

// skipParens consumes a balanced parenthesized group starting at '('.
func (p *Parser) skipParens() {
	depth := 0
	for {
		switch p.cur().Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				p.next()
				return
			}
		case token.EOF:
			p.addError("unexpected end of statement inside parentheses")
			return
		}
		p.next()
	}
}

// parenOpensQuery reports whether the '(' at the cursor starts a
// parenthesized query rather than a column list.
func (p *Parser) parenOpensQuery() bool {
	switch p.at(p.pos + 1).Type {
	case token.SELECT, token.WITH, token.VALUES, token.LPAREN:
		return true
	}
	return false
}

// firstInsideParens returns the first token after any run of '('.
func (p *Parser) firstInsideParens() token.Token {
	i := p.pos
	for p.at(i).Type == token.LPAREN {
		i++
	}
	return p.at(i)
}

// matchingParen returns the index of the ')' that closes the '(' at open,
// or -1 when unbalanced.
func matchingParen(tokens []token.Token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch tokens[i].Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// isNameToken reports whether tok can serve as an identifier part. Quoted
// identifiers always qualify; unquoted keywords qualify unless they are
// structural, matching how SQL treats non-reserved keywords.
func isNameToken(tok token.Token) bool {
	if tok.Type == token.IDENT {
		return true
	}
	if !token.IsKeyword(tok.Type) {
		return false
	}
	return !reservedNames[tok.Type]
}

// reservedNames are keywords that never act as identifier parts.
var reservedNames = map[token.TokenType]bool{
	token.ALL: true, token.AND: true, token.AS: true, token.BETWEEN: true,
	token.BY: true, token.CASE: true, token.CREATE: true, token.CROSS: true,
	token.DELETE: true, token.DISTINCT: true, token.DROP: true,
	token.ELSE: true, token.END: true, token.EXCEPT: true, token.FALSE: true,
	token.FROM: true, token.FULL: true, token.GROUP: true, token.HAVING: true,
	token.IN: true, token.INNER: true, token.INSERT: true,
	token.INTERSECT: true, token.INTO: true, token.IS: true, token.JOIN: true,
	token.LEFT: true, token.LIKE: true, token.LIMIT: true, token.NOT: true,
	token.NULL: true, token.OFFSET: true, token.ON: true, token.OR: true,
	token.ORDER: true, token.OUTER: true, token.RIGHT: true,
	token.SELECT: true, token.SET: true, token.TABLE: true, token.THEN: true,
	token.TRUE: true, token.UNION: true, token.UPDATE: true, token.USING: true,
	token.VALUES: true, token.WHEN: true, token.WHERE: true, token.WITH: true,
}

// scanRefs collects every dotted identifier chain, longest first from each
// starting token, in source order.
func scanRefs(tokens []token.Token) []TableRef {
	var refs []TableRef
	for i := 0; i < len(tokens); i++ {
		if !isNameToken(tokens[i]) {
			continue
		}
		if i > 0 && tokens[i-1].Type == token.DOT {
			continue // interior of a chain already collected
		}
		ref := TableRef{Parts: []token.Token{tokens[i]}}
		j := i
		for j+2 < len(tokens) && tokens[j+1].Type == token.DOT && isNameToken(tokens[j+2]) {
			ref.Parts = append(ref.Parts, tokens[j+2])
			j += 2
		}
		ref.Span = token.Span{
			Start: tokens[i].Pos.Offset,
			End:   ref.Parts[len(ref.Parts)-1].End,
		}
		refs = append(refs, ref)
		i = j
	}
	return refs
}
