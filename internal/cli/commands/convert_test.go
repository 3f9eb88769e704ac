package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScript = `SELECT * INTO #temp FROM users;
SELECT * FROM #temp;
`

func runConvertCmd(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewConvertCommand()
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

func TestConvertStdinToStdout(t *testing.T) {
	out, _, err := runConvertCmd(t, sampleScript)
	require.NoError(t, err)
	assert.Contains(t, out, "WITH temp AS (")
	assert.Contains(t, out, "SELECT * FROM temp;")
	assert.NotContains(t, out, "#temp")
}

func TestConvertExplicitStdinDash(t *testing.T) {
	out, _, err := runConvertCmd(t, sampleScript, "-")
	require.NoError(t, err)
	assert.Contains(t, out, "WITH temp AS (")
}

func TestConvertFileToOutDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.sql")
	require.NoError(t, os.WriteFile(src, []byte(sampleScript), 0o644))
	outDir := filepath.Join(dir, "converted")
	require.NoError(t, os.MkdirAll(outDir, 0o750))

	_, _, err := runConvertCmd(t, "", src, "--out", outDir)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(outDir, "report.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "WITH temp AS (")
}

func TestConvertSingleFileToOutFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.sql")
	require.NoError(t, os.WriteFile(src, []byte(sampleScript), 0o644))
	dest := filepath.Join(dir, "report_cte.sql")

	_, _, err := runConvertCmd(t, "", src, "--out", dest)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(got), "WITH temp AS (")
}

func TestConvertDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.sql"), []byte(sampleScript), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.sql"), []byte("SELECT 1;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))
	outDir := filepath.Join(dir, "out")

	out, _, err := runConvertCmd(t, "", dir, "--out", outDir, "--jobs", "2")
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"a.sql", "b.sql"}, names)
	// Summary table names both files.
	assert.Contains(t, out, "a.sql")
	assert.Contains(t, out, "b.sql")

	unchanged, err := os.ReadFile(filepath.Join(outDir, "b.sql"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;\n", string(unchanged))
}

func TestConvertRecursivePreservesStructure(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "src", "reports")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "daily.sql"), []byte(sampleScript), 0o644))
	outDir := filepath.Join(dir, "out")

	_, _, err := runConvertCmd(t, "", filepath.Join(dir, "src"), "-r", "--out", outDir, "--preserve-structure")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "reports", "daily.sql"))
	assert.NoError(t, err)
}

func TestConvertWriteInPlace(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.sql")
	require.NoError(t, os.WriteFile(src, []byte(sampleScript), 0o644))

	_, _, err := runConvertCmd(t, "", src, "--write")
	require.NoError(t, err)

	got, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Contains(t, string(got), "WITH temp AS (")
}

func TestConvertRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.sql")
	require.NoError(t, os.WriteFile(src, []byte(sampleScript), 0o644))
	dest := filepath.Join(dir, "out.sql")
	require.NoError(t, os.WriteFile(dest, []byte("precious"), 0o644))

	_, _, err := runConvertCmd(t, "", src, "--out", dest)
	require.Error(t, err)

	kept, readErr := os.ReadFile(dest)
	require.NoError(t, readErr)
	assert.Equal(t, "precious", string(kept))

	_, _, err = runConvertCmd(t, "", src, "--out", dest, "--overwrite")
	require.NoError(t, err)
}

func TestConvertBadFileFailsWithoutBlockingOthers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.sql"), []byte(sampleScript), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("SELECT 'unterminated;\n"), 0o644))
	outDir := filepath.Join(dir, "out")

	_, _, err := runConvertCmd(t, "", dir, "--out", outDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")

	// The good file still converted.
	_, statErr := os.Stat(filepath.Join(outDir, "good.sql"))
	assert.NoError(t, statErr)
}

func TestConvertRejectsConflictingFlags(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.sql")
	require.NoError(t, os.WriteFile(src, []byte(sampleScript), 0o644))

	_, _, err := runConvertCmd(t, "", src, "--write", "--out", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestConvertNoSQLFiles(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runConvertCmd(t, "", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .sql files")
}

func TestCollectInputsDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.sql", "a.sql", "b.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}

	inputs, err := collectInputs([]string{dir}, false)
	require.NoError(t, err)
	var got []string
	for _, in := range inputs {
		got = append(got, filepath.Base(in.path))
	}
	assert.Equal(t, []string{"a.sql", "b.sql", "c.sql"}, got)
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "x.sql")
	require.NoError(t, writeFileAtomic(dest, []byte("SELECT 1;\n"), false))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x.sql", entries[0].Name())
}
