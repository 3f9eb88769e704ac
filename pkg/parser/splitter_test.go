package parser

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/cteshift/pkg/dialect"
)

func splitTexts(t *testing.T, sql string, d *dialect.Dialect) []string {
	t.Helper()
	stmts, err := Split(sql, d)
	if err != nil {
		t.Fatalf("Split(%q) error: %v", sql, err)
	}
	texts := make([]string, 0, len(stmts))
	for _, s := range stmts {
		texts = append(texts, s.Text)
	}
	return texts
}

func TestSplitBasic(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "two statements",
			sql:  "SELECT 1; SELECT 2;",
			want: []string{"SELECT 1", "SELECT 2"},
		},
		{
			name: "no trailing semicolon",
			sql:  "SELECT 1; SELECT 2",
			want: []string{"SELECT 1", "SELECT 2"},
		},
		{
			name: "semicolon in string",
			sql:  "SELECT 'a;b'; SELECT 2",
			want: []string{"SELECT 'a;b'", "SELECT 2"},
		},
		{
			name: "semicolon in comment",
			sql:  "SELECT 1 -- one; two\n; SELECT 2",
			want: []string{"SELECT 1 -- one; two", "SELECT 2"},
		},
		{
			name: "semicolon in block comment",
			sql:  "SELECT /* a; b */ 1; SELECT 2",
			want: []string{"SELECT /* a; b */ 1", "SELECT 2"},
		},
		{
			name: "empty statements dropped",
			sql:  ";;SELECT 1;; ;",
			want: []string{"SELECT 1"},
		},
		{
			name: "multiline statement",
			sql:  "SELECT *\nINTO #t\nFROM users;\nSELECT * FROM #t;",
			want: []string{"SELECT *\nINTO #t\nFROM users", "SELECT * FROM #t"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitTexts(t, tt.sql, nil)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d statements %q, want %d", len(got), got, len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("statement[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitParenDepth(t *testing.T) {
	// A semicolon inside parentheses must not split. None occur in valid
	// SQL, but function bodies and defaults can carry them in strings.
	got := splitTexts(t, "SELECT (SELECT ';' FROM t) x; SELECT 2", nil)
	if len(got) != 2 {
		t.Fatalf("got %d statements: %q", len(got), got)
	}
}

func TestSplitBatchSeparator(t *testing.T) {
	sql := "SELECT 1\nGO\nSELECT 2\ngo\nSELECT 3"
	stmts, err := Split(sql, dialect.MustGet("tsql"))
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3: %+v", len(stmts), stmts)
	}
	if stmts[0].Separator != "GO" || stmts[1].Separator != "go" {
		t.Errorf("separators = %q, %q; want GO, go", stmts[0].Separator, stmts[1].Separator)
	}
	if stmts[2].Separator != "" {
		t.Errorf("last separator = %q, want empty", stmts[2].Separator)
	}
}

func TestSplitGoAsIdentifierDoesNotSplit(t *testing.T) {
	// GO only separates when it stands alone on a line.
	got := splitTexts(t, "SELECT go FROM walks", dialect.MustGet("tsql"))
	if len(got) != 1 {
		t.Fatalf("got %d statements: %q", len(got), got)
	}
}

func TestSplitGoIgnoredInANSI(t *testing.T) {
	got := splitTexts(t, "SELECT 1\nGO\nSELECT 2", nil)
	if len(got) != 1 {
		t.Fatalf("ansi split on GO: %q", got)
	}
}

func TestSplitIndexAndTerminated(t *testing.T) {
	stmts, err := Split("SELECT 1;\nSELECT 2", nil)
	if err != nil {
		t.Fatal(err)
	}
	if stmts[0].Index != 0 || stmts[1].Index != 1 {
		t.Errorf("indexes = %d, %d", stmts[0].Index, stmts[1].Index)
	}
	if !stmts[0].Terminated || stmts[1].Terminated {
		t.Errorf("terminated = %v, %v; want true, false", stmts[0].Terminated, stmts[1].Terminated)
	}
	if stmts[1].Pos.Line != 2 {
		t.Errorf("second statement line = %d, want 2", stmts[1].Pos.Line)
	}
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"empty input", ""},
		{"only whitespace", "  \n\t "},
		{"only comments", "-- nothing here\n/* or here */"},
		{"unbalanced open paren", "SELECT (1"},
		{"unbalanced close paren", "SELECT 1)"},
		{"unterminated string", "SELECT 'abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.sql, nil)
			if err == nil {
				t.Fatalf("Split(%q) succeeded, want error", tt.sql)
			}
			var parseErr *ParseError
			var lexErr *LexError
			if !errors.As(err, &parseErr) && !errors.As(err, &lexErr) {
				t.Errorf("error type = %T, want *ParseError or *LexError", err)
			}
		})
	}
}
