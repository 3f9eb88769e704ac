package parser

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/cteshift/pkg/dialect"
	"github.com/leapstack-labs/cteshift/pkg/token"
)

func tokenTypes(t *testing.T, input string, d *dialect.Dialect) []token.TokenType {
	t.Helper()
	tokens, err := Tokenize(input, d)
	if err != nil {
		t.Fatalf("Tokenize(%q) error: %v", input, err)
	}
	types := make([]token.TokenType, 0, len(tokens))
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	return types
}

func TestLexerBasicTokens(t *testing.T) {
	got := tokenTypes(t, "SELECT id, name FROM users;", nil)
	want := []token.TokenType{
		token.SELECT, token.IDENT, token.COMMA, token.IDENT,
		token.FROM, token.IDENT, token.SEMICOLON,
	}
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexerTempTableNames(t *testing.T) {
	tokens, err := Tokenize("SELECT * FROM #temp_orders", nil)
	if err != nil {
		t.Fatal(err)
	}
	last := tokens[len(tokens)-1]
	if last.Type != token.IDENT || last.Literal != "#temp_orders" {
		t.Errorf("temp name token = %v %q, want IDENT #temp_orders", last.Type, last.Literal)
	}
}

func TestLexerQuotedIdentifiers(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		input   string
		literal string
		quote   byte
	}{
		{"ansi double quote", "ansi", `"Order Details"`, "Order Details", '"'},
		{"ansi escaped quote", "ansi", `"a""b"`, `a"b`, '"'},
		{"tsql bracket", "tsql", "[Column Name]", "Column Name", '['},
		{"tsql escaped bracket", "tsql", "[a]]b]", "a]b", '['},
		{"mysql backtick", "mysql", "`from`", "from", '`'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := dialect.MustGet(tt.dialect)
			tokens, err := Tokenize(tt.input, d)
			if err != nil {
				t.Fatal(err)
			}
			if len(tokens) != 1 {
				t.Fatalf("got %d tokens, want 1: %v", len(tokens), tokens)
			}
			tok := tokens[0]
			if tok.Type != token.IDENT || tok.Literal != tt.literal || tok.Quote != tt.quote {
				t.Errorf("token = {%v %q quote=%c}, want {IDENT %q quote=%c}",
					tok.Type, tok.Literal, tok.Quote, tt.literal, tt.quote)
			}
			if tok.Pos.Offset != 0 || tok.End != len(tt.input) {
				t.Errorf("span = [%d,%d), want [0,%d)", tok.Pos.Offset, tok.End, len(tt.input))
			}
		})
	}
}

func TestLexerBracketsAreIdentsOnlyInTSQL(t *testing.T) {
	got := tokenTypes(t, "[x]", dialect.MustGet("ansi"))
	want := []token.TokenType{token.LBRACKET, token.IDENT, token.RBRACKET}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ansi [x] tokens = %v, want %v", got, want)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		input   string
		literal string
	}{
		{"simple", "ansi", "'hello'", "hello"},
		{"doubled quote escape", "ansi", "'it''s'", "it's"},
		{"semicolon inside", "ansi", "'a;b'", "a;b"},
		{"mysql backslash", "mysql", `'a\'b'`, "a'b"},
		{"mysql double quoted", "mysql", `"text"`, "text"},
		{"postgres dollar", "postgres", "$$ raw ; text $$", " raw ; text "},
		{"postgres tagged dollar", "postgres", "$tag$a$x$b$tag$", "a$x$b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input, dialect.MustGet(tt.dialect))
			if err != nil {
				t.Fatal(err)
			}
			if len(tokens) != 1 || tokens[0].Type != token.STRING {
				t.Fatalf("tokens = %v, want one STRING", tokens)
			}
			if tokens[0].Literal != tt.literal {
				t.Errorf("literal = %q, want %q", tokens[0].Literal, tt.literal)
			}
		})
	}
}

func TestLexerComments(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		input   string
		count   int
	}{
		{"line comment", "ansi", "SELECT 1 -- trailing ; comment\n, 2", 4},
		{"block comment", "ansi", "SELECT /* ; */ 1", 2},
		{"nested block postgres", "postgres", "SELECT /* a /* b */ c */ 1", 2},
		{"hash comment mysql", "mysql", "SELECT 1 # note\n, 2", 4},
		{"snowflake slash slash", "snowflake", "SELECT 1 // note\n, 2", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input, dialect.MustGet(tt.dialect))
			if err != nil {
				t.Fatal(err)
			}
			if len(tokens) != tt.count {
				t.Errorf("token count = %d, want %d: %v", len(tokens), tt.count, tokens)
			}
		})
	}
}

func TestLexerHashIsNotIdentInMySQL(t *testing.T) {
	// In mysql '#' opens a comment, so no temp-marker identifiers exist.
	tokens, err := Tokenize("SELECT #temp\n1", dialect.MustGet("mysql"))
	if err != nil {
		t.Fatal(err)
	}
	for _, tok := range tokens {
		if tok.Literal == "#temp" {
			t.Fatalf("mysql lexed %q as an identifier", tok.Literal)
		}
	}
}

func TestLexerUnterminatedInputs(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"string", "SELECT 'abc"},
		{"quoted ident", `SELECT "abc`},
		{"block comment", "SELECT 1 /* abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input, nil)
			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("Tokenize(%q) error = %v, want *LexError", tt.input, err)
			}
			if !lexErr.Pos.IsValid() {
				t.Errorf("error position invalid: %+v", lexErr.Pos)
			}
		})
	}
}

func TestLexerPositions(t *testing.T) {
	tokens, err := Tokenize("SELECT 1\nFROM t", nil)
	if err != nil {
		t.Fatal(err)
	}
	from := tokens[2]
	if from.Type != token.FROM {
		t.Fatalf("token[2] = %v, want FROM", from.Type)
	}
	if from.Pos.Line != 2 || from.Pos.Column != 1 {
		t.Errorf("FROM at line %d col %d, want line 2 col 1", from.Pos.Line, from.Pos.Column)
	}
	if got := "SELECT 1\nFROM t"[from.Pos.Offset:from.End]; got != "FROM" {
		t.Errorf("FROM span reads %q", got)
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input   string
		literal string
	}{
		{"42", "42"},
		{"3.14", "3.14"},
		{"1e10", "1e10"},
		{"2.5E-3", "2.5E-3"},
	}
	for _, tt := range tests {
		tokens, err := Tokenize(tt.input, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(tokens) != 1 || tokens[0].Type != token.NUMBER || tokens[0].Literal != tt.literal {
			t.Errorf("Tokenize(%q) = %v, want one NUMBER %q", tt.input, tokens, tt.literal)
		}
	}
}
