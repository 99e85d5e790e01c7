package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpSQL_RenamesSchema(t *testing.T) {
	t.Parallel()

	sql, err := UpSQL("estate_it_abc")
	require.NoError(t, err)

	require.Contains(t, sql, "CREATE SCHEMA IF NOT EXISTS estate_it_abc;")
	require.Contains(t, sql, "CREATE TABLE estate_it_abc.accounts")
	require.Contains(t, sql, "REFERENCES estate_it_abc.accounts (id) ON DELETE CASCADE")
	require.NotContains(t, sql, " estate.")
	require.NotContains(t, sql, "DROP TABLE", "down section must be excluded")
	require.False(t, strings.Contains(sql, "+goose"))
}

func TestUpSQL_RejectsUnsafeSchema(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "Estate", "1estate", "estate; DROP", `estate"x`, strings.Repeat("a", 64)} {
		_, err := UpSQL(s)
		require.Error(t, err, s)
	}
}
