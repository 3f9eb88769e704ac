package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectsListsProfiles(t *testing.T) {
	cmd := NewDialectsCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	require.NoError(t, cmd.Execute())

	for _, name := range []string{"ansi", "tsql", "mysql", "postgres", "snowflake"} {
		assert.Contains(t, out.String(), name)
	}
	// T-SQL is the only dialect with a batch separator.
	assert.Contains(t, out.String(), "GO")
}

func TestDialectsJSONOutput(t *testing.T) {
	t.Setenv("CTESHIFT_OUTPUT", "json")
	cmd := NewDialectsCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	require.NoError(t, cmd.Execute())

	var infos []dialectInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &infos))
	require.NotEmpty(t, infos)

	byName := make(map[string]dialectInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}
	tsql, ok := byName["tsql"]
	require.True(t, ok)
	assert.Equal(t, "GO", tsql.BatchSeparator)
	assert.Contains(t, tsql.IdentQuotes, "[...]")

	pg, ok := byName["postgres"]
	require.True(t, ok)
	assert.Contains(t, pg.Aliases, "postgresql")
}
