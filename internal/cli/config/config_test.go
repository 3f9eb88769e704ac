package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDialect, cfg.Dialect)
	assert.Equal(t, []string{"#*"}, cfg.TempTablePatterns)
	assert.Equal(t, DefaultIndentWidth, cfg.IndentWidth)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfigFromFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := filepath.Join(dir, "cteshift.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dialect: tsql
temp_table_patterns:
  - "#*"
  - "tmp_*"
indent_width: 2
verbose: true
`), 0o644))
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "tsql", cfg.Dialect)
	assert.Equal(t, []string{"#*", "tmp_*"}, cfg.TempTablePatterns)
	assert.Equal(t, 2, cfg.IndentWidth)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoadConfigSearchesUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "cteshift.yml"), []byte("dialect: mysql\n"), 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Dialect)
}

func TestLoadConfigExplicitFileWins(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cteshift.yaml"), []byte("dialect: mysql\n"), 0o644))
	other := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(other, []byte("dialect: postgres\n"), 0o644))
	t.Chdir(dir)

	cfg, err := LoadConfig(other, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, other, GetConfigFileUsed())
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cteshift.yaml"), []byte("dialect: mysql\n"), 0o644))
	t.Chdir(dir)
	t.Setenv("CTESHIFT_DIALECT", "snowflake")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "snowflake", cfg.Dialect)
}

func TestLoadConfigEnvPatternListSplitsOnComma(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("CTESHIFT_TEMP_TABLE_PATTERNS", "#*,tmp_*,stage_?")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"#*", "tmp_*", "stage_?"}, cfg.TempTablePatterns)
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("CTESHIFT_DIALECT", "mysql")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dialect", "", "")
	flags.StringSlice("patterns", nil, "")
	flags.Int("indent", 0, "")
	require.NoError(t, flags.Parse([]string{"--dialect", "tsql", "--indent", "8"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "tsql", cfg.Dialect)
	assert.Equal(t, 8, cfg.IndentWidth)
	// Unchanged flags must not clobber lower layers.
	assert.Equal(t, []string{"#*"}, cfg.TempTablePatterns)
}

func TestLoadConfigFlagKeyMapping(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringSlice("patterns", nil, "")
	require.NoError(t, flags.Parse([]string{"--patterns", "#temp_*", "--patterns", "scratch_*"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, []string{"#temp_*", "scratch_*"}, cfg.TempTablePatterns)
}

func TestLoadConfigRejectsUnknownDialect(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("CTESHIFT_DIALECT", "db2")

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dialect")
	assert.Contains(t, err.Error(), "Hint")
}

func TestLoadConfigRejectsNegativeIndent(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cteshift.yaml"), []byte("indent_width: -1\n"), 0o644))
	t.Chdir(dir)

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indent_width")
}

func TestLoadConfigRejectsBadOutputFormat(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("CTESHIFT_OUTPUT", "xml")

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output format")
}

func TestGetCurrentConfig(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	assert.Nil(t, GetCurrentConfig())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestConvertOptionsBridge(t *testing.T) {
	cfg := &Config{
		Dialect:           "tsql",
		TempTablePatterns: []string{"#*"},
		IndentWidth:       2,
	}
	opts := cfg.ConvertOptions()
	assert.Equal(t, "tsql", opts.Dialect)
	assert.Equal(t, []string{"#*"}, opts.TempTablePatterns)
	assert.Equal(t, 2, opts.IndentWidth)
}
