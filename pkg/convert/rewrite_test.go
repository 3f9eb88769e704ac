package convert

import (
	"strings"
	"testing"
)

func TestRewritePreservesBracketQuoting(t *testing.T) {
	sql := `SELECT [Column Name] INTO [#temp] FROM [dbo].[Source Table];
SELECT [Column Name] FROM [#temp];`

	res := mustConvert(t, sql, Options{Dialect: "tsql"})
	if !strings.Contains(res.SQL, "[temp]") {
		t.Errorf("quoted reference should stay bracket-quoted:\n%s", res.SQL)
	}
	if !strings.Contains(res.SQL, "[dbo].[Source Table]") {
		t.Errorf("non-temp quoting must survive untouched:\n%s", res.SQL)
	}
	if !strings.Contains(res.SQL, "[Column Name]") {
		t.Errorf("column quoting must survive untouched:\n%s", res.SQL)
	}
	if strings.Contains(res.SQL, "#temp") {
		t.Errorf("#temp remains:\n%s", res.SQL)
	}
}

func TestRewriteQualifiedColumnReferences(t *testing.T) {
	sql := `SELECT * INTO #o FROM orders;
SELECT #o.id, #o.total FROM #o WHERE #o.total > 5;`

	res := mustConvert(t, sql, DefaultOptions())
	if !strings.Contains(res.SQL, "SELECT o.id, o.total FROM o WHERE o.total > 5;") {
		t.Errorf("qualified columns not retargeted:\n%s", res.SQL)
	}
}

func TestRewriteLeavesStringsAndComments(t *testing.T) {
	sql := `SELECT * INTO #t FROM users;
SELECT '#t is not a table here', col -- #t in a comment
FROM #t;`

	res := mustConvert(t, sql, DefaultOptions())
	if !strings.Contains(res.SQL, "'#t is not a table here'") {
		t.Errorf("string literal was rewritten:\n%s", res.SQL)
	}
	if !strings.Contains(res.SQL, "-- #t in a comment") {
		t.Errorf("comment was rewritten or dropped:\n%s", res.SQL)
	}
	if !strings.Contains(res.SQL, "FROM t;") {
		t.Errorf("real reference not rewritten:\n%s", res.SQL)
	}
}

func TestRewriteInsertTargetInRetainedStatement(t *testing.T) {
	// An INSERT into a converted temp that is not part of a
	// create-then-insert pair stays in the script, retargeted.
	sql := `SELECT * INTO #t FROM users;
INSERT INTO audit_log SELECT * FROM #t;
SELECT * FROM #t;`

	res := mustConvert(t, sql, DefaultOptions())
	if !strings.Contains(res.SQL, "INSERT INTO audit_log SELECT * FROM t;") {
		t.Errorf("retained insert not rewritten:\n%s", res.SQL)
	}
}

func TestRewriteAliasedTempReferences(t *testing.T) {
	sql := `SELECT * INTO #t1 FROM users;
SELECT * INTO #t2 FROM products;
SELECT a.name, b.price FROM #t1 AS a JOIN #t2 b ON a.id = b.uid;`

	res := mustConvert(t, sql, DefaultOptions())
	if !strings.Contains(res.SQL, "FROM t1 AS a JOIN t2 b ON a.id = b.uid;") {
		t.Errorf("aliased references not rewritten:\n%s", res.SQL)
	}
}

func TestRewriteSubqueryReferences(t *testing.T) {
	sql := `SELECT * INTO #t FROM users;
SELECT * FROM (SELECT id FROM #t) sub WHERE EXISTS (SELECT 1 FROM #t x WHERE x.id = sub.id);`

	res := mustConvert(t, sql, DefaultOptions())
	if strings.Contains(res.SQL, "#t") {
		t.Errorf("nested references remain:\n%s", res.SQL)
	}
}

func TestConvertTSQLBatches(t *testing.T) {
	sql := "SELECT * INTO #t FROM users\nGO\nSELECT * FROM #t\nGO"

	res := mustConvert(t, sql, Options{Dialect: "tsql"})
	if !strings.Contains(res.SQL, "WITH t AS (\n    SELECT * FROM users\n)\nSELECT * FROM t\nGO") {
		t.Errorf("batch output:\n%s", res.SQL)
	}
}
