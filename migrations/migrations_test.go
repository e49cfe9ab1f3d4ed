package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSeedsAgentCounter(t *testing.T) {
	data, err := FS.ReadFile("00001_init.sql")
	require.NoError(t, err)

	sql := string(data)
	assert.Contains(t, sql, "INSERT INTO agent_number_sequences (name, last_value) VALUES ('agent', 0)")
	assert.Contains(t, sql, "ON CONFLICT (name) DO NOTHING")
}
