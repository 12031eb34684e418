package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationsAreEmbeddedAndSplit(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), 2)

	content, err := fs.ReadFile(migrationsFS, "migrations/0001_init.sql")
	require.NoError(t, err)
	stmts := splitStatements(string(content))
	require.NotEmpty(t, stmts)
	require.True(t, strings.HasPrefix(stmts[0], "CREATE EXTENSION"))
	for _, s := range stmts {
		require.NotEmpty(t, strings.TrimSpace(s))
	}
}

func TestSplitStatementsSkipsBlanks(t *testing.T) {
	require.Equal(t, []string{"SELECT 1", "SELECT 2"}, splitStatements("SELECT 1;\n\n;  SELECT 2;\n"))
}
