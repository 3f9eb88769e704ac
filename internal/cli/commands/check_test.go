package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCheckCmd(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewCheckCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCheckReportsTempTables(t *testing.T) {
	sql := `SELECT * INTO #base FROM users;
SELECT * INTO #dep FROM #base;
SELECT * FROM #dep;
`
	out, _, err := runCheckCmd(t, sql)
	require.NoError(t, err)
	assert.Contains(t, out, "#base")
	assert.Contains(t, out, "#dep")
	assert.Contains(t, out, "select-into")
}

func TestCheckJSONOutput(t *testing.T) {
	t.Setenv("CTESHIFT_OUTPUT", "json")
	sql := `SELECT * INTO #t FROM users;
SELECT * FROM #t;
`
	out, _, err := runCheckCmd(t, sql)
	require.NoError(t, err)

	var results []checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Analysis)
	require.Len(t, results[0].Analysis.TempTables, 1)
	tt := results[0].Analysis.TempTables[0]
	assert.Equal(t, "#t", tt.Name)
	assert.Equal(t, "t", tt.CTEName)
	assert.Equal(t, "select-into", tt.Kind)
}

func TestCheckNoTempTables(t *testing.T) {
	out, _, err := runCheckCmd(t, "SELECT 1;\nSELECT 2;\n")
	require.NoError(t, err)
	assert.Contains(t, out, "no temp tables")
	assert.Contains(t, out, "2 statements")
}

func TestCheckReportsCycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cyclic.sql")
	sql := `SELECT * INTO #a FROM #b;
SELECT * INTO #b FROM #a;
SELECT * FROM #a;
`
	require.NoError(t, os.WriteFile(path, []byte(sql), 0o644))

	_, errOut, err := runCheckCmd(t, "", path)
	require.Error(t, err)
	assert.Contains(t, errOut, "circular dependency")
}

func TestCheckMultipleFilesFailureCount(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.sql"), []byte("SELECT * INTO #t FROM u;\nSELECT * FROM #t;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("SELECT 'x;\n"), 0o644))

	_, _, err := runCheckCmd(t, "", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
}
