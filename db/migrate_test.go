package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/arbor/errors"
)

func TestOpenWithMigrations(t *testing.T) {
	t.Run("creates the schema", func(t *testing.T) {
		db, err := OpenWithMigrations(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		for _, table := range []string{"schema_migrations", "graph_snapshots"} {
			var n int
			err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
			require.NoError(t, err)
			assert.Equal(t, 1, n, table)
		}

		pending, err := Pending(db)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("migration errors include stack traces", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		first, err := Open(dbPath, nil)
		require.NoError(t, err)
		first.Close()

		// Read-only directory makes WAL setup fail
		require.NoError(t, os.Chmod(tmpDir, 0o555))
		defer os.Chmod(tmpDir, 0o755)

		db, err := OpenWithMigrations(dbPath, nil)
		require.Error(t, err)
		assert.Nil(t, db)
		assert.NotNil(t, errors.GetReportableStackTrace(err))
		assert.Contains(t, fmt.Sprintf("%+v", err), "connection.go")
	})
}

func TestMigrate(t *testing.T) {
	t.Run("is idempotent", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		pending, err := Pending(db)
		require.NoError(t, err)
		assert.Len(t, pending, 2)

		require.NoError(t, Migrate(db, nil))
		require.NoError(t, Migrate(db, nil), "running migrations multiple times should be safe")

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("fails on a closed database", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		db.Close()

		assert.Error(t, Migrate(db, nil))
	})
}

func TestCollectStats(t *testing.T) {
	db, err := OpenWithMigrations(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	stats, err := CollectStats(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	for i, session := range []string{"a", "a", "b"} {
		_, err := db.Exec(`INSERT INTO graph_snapshots
			(session_id, revision, data, node_count, edge_count, published_at)
			VALUES (?, ?, '{}', 0, 0, ?)`, session, fmt.Sprint(i), fmt.Sprintf("2026-01-0%dT00:00:00Z", i+1))
		require.NoError(t, err)
	}

	stats, err = CollectStats(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 3, stats.Snapshots)
	assert.Equal(t, "2026-01-03T00:00:00Z", stats.Newest)
}
