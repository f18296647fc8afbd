package storage

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/arbor/db"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/graph"
	arbortest "github.com/teranos/arbor/internal/testing"
	"github.com/teranos/arbor/snapshot"
)

func record(session, data string, at time.Time) snapshot.Record {
	return snapshot.Record{
		SessionID:   session,
		Revision:    snapshot.Revision([]byte(data)),
		Data:        []byte(data),
		PublishedAt: at,
	}
}

func TestSnapshotStore_SaveAndLatest(t *testing.T) {
	store := NewSnapshotStore(arbortest.CreateTestDB(t))
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	_, err := store.Latest(ctx, "s1")
	assert.True(t, errors.IsNotFoundError(err))

	require.NoError(t, store.Save(ctx, record("s1", `{"v":1}`, at)))
	require.NoError(t, store.Save(ctx, record("s1", `{"v":2}`, at.Add(time.Second))))
	require.NoError(t, store.Save(ctx, record("s2", `{"v":9}`, at)))

	latest, err := store.Latest(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(latest.Data))
	assert.Equal(t, snapshot.Revision([]byte(`{"v":2}`)), latest.Revision)
	assert.True(t, at.Add(time.Second).Equal(latest.PublishedAt))
}

func TestSnapshotStore_SaveSkipsRepeatedRevision(t *testing.T) {
	store := NewSnapshotStore(arbortest.CreateTestDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Save(ctx, record("s1", `{"v":1}`, now)))
	require.NoError(t, store.Save(ctx, record("s1", `{"v":1}`, now)))
	require.NoError(t, store.Save(ctx, record("s1", `{"v":2}`, now)))
	require.NoError(t, store.Save(ctx, record("s1", `{"v":1}`, now)))

	history, err := store.History(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, `{"v":1}`, string(history[0].Data))
	assert.Equal(t, `{"v":2}`, string(history[1].Data))
}

func TestSnapshotStore_HistoryAndPrune(t *testing.T) {
	store := NewSnapshotStore(arbortest.CreateTestDB(t))
	ctx := context.Background()
	now := time.Now()

	for _, v := range []string{"1", "2", "3", "4", "5"} {
		require.NoError(t, store.Save(ctx, record("s1", `{"v":`+v+`}`, now)))
	}

	history, err := store.History(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, `{"v":5}`, string(history[0].Data))

	removed, err := store.Prune(ctx, "s1", 3)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	history, err = store.History(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 3)
	assert.Equal(t, `{"v":3}`, string(history[2].Data))

	empty, err := store.History(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSnapshotStore_AsPublisher(t *testing.T) {
	sqlDB := arbortest.CreateTestDB(t)
	store := NewSnapshotStore(sqlDB)
	g := graph.NewStore()
	exp := snapshot.NewExporter("s1", g, snapshot.WithPublishers(store))

	exp.Publish()
	require.NoError(t, g.AddNode("A", graph.Position{}))
	require.NoError(t, g.AddNode("B", graph.Position{}))

	latest, err := store.Latest(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Nodes)

	sessions, err := store.Sessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, sessions)

	sqlDB.Close()
	err = store.Publish(record("s1", `{}`, time.Now()))
	assert.True(t, errors.Is(err, db.ErrDatabaseClosed))
}

func TestSnapshotStore_SaveError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO graph_snapshots")).
		WillReturnError(errors.New("disk I/O error"))

	store := NewSnapshotStore(sqlDB)
	err = store.Save(context.Background(), record("s1", `{}`, time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save snapshot")
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_LatestQueryError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM graph_snapshots WHERE session_id = ?")).
		WithArgs("s1").
		WillReturnError(errors.New("database is locked"))

	_, err = NewSnapshotStore(sqlDB).Latest(context.Background(), "s1")
	require.Error(t, err)
	assert.False(t, errors.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_HistoryScanError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	rows := sqlmock.NewRows([]string{"session_id", "revision", "data", "node_count", "edge_count", "published_at"}).
		AddRow("s1", "r", "{}", "not-a-number", 0, "2026-01-01T00:00:00Z")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id DESC LIMIT ?")).
		WithArgs("s1", 5).
		WillReturnRows(rows)

	_, err = NewSnapshotStore(sqlDB).History(context.Background(), "s1", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan snapshot")
}
