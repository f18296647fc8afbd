// Package storage persists published graph snapshots in SQLite, so a
// session's graph survives a server restart and its history can be browsed.
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/teranos/arbor/db"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/snapshot"
)

// SnapshotStore provides storage operations for published snapshots
type SnapshotStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSnapshotStore creates a new snapshot store
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db, timeout: 5 * time.Second}
}

// Save appends a record to its session's history. Saving the revision that
// is already the session's newest is a no-op.
func (s *SnapshotStore) Save(ctx context.Context, rec snapshot.Record) error {
	if rec.PublishedAt.IsZero() {
		rec.PublishedAt = time.Now()
	}

	query := `
		INSERT INTO graph_snapshots (session_id, revision, data, node_count, edge_count, published_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM graph_snapshots
			WHERE session_id = ? AND revision = ?
			  AND id = (SELECT MAX(id) FROM graph_snapshots WHERE session_id = ?)
		)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.SessionID, rec.Revision, string(rec.Data), rec.Nodes, rec.Edges,
		rec.PublishedAt.UTC().Format(time.RFC3339Nano),
		rec.SessionID, rec.Revision, rec.SessionID,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to save snapshot %s of session %s", rec.Revision, rec.SessionID)
	}

	return nil
}

// Publish implements snapshot.Publisher
func (s *SnapshotStore) Publish(rec snapshot.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := s.Save(ctx, rec)
	if db.IsDatabaseClosed(err) {
		return errors.Mark(err, db.ErrDatabaseClosed)
	}
	return err
}

// Latest retrieves a session's newest snapshot
func (s *SnapshotStore) Latest(ctx context.Context, sessionID string) (snapshot.Record, error) {
	query := `SELECT session_id, revision, data, node_count, edge_count, published_at
	          FROM graph_snapshots WHERE session_id = ? ORDER BY id DESC LIMIT 1`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, sessionID))
	if err == sql.ErrNoRows {
		return snapshot.Record{}, errors.NewNotFoundError("no snapshot for session %s", sessionID)
	}
	if err != nil {
		return snapshot.Record{}, errors.Wrapf(err, "failed to get latest snapshot of session %s", sessionID)
	}

	return rec, nil
}

// History returns up to limit snapshots of a session, newest first. A
// non-positive limit returns all of them.
func (s *SnapshotStore) History(ctx context.Context, sessionID string, limit int) ([]snapshot.Record, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT session_id, revision, data, node_count, edge_count, published_at
	          FROM graph_snapshots WHERE session_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list snapshots of session %s", sessionID)
	}
	defer rows.Close()

	records := []snapshot.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan snapshot")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to list snapshots of session %s", sessionID)
	}

	return records, nil
}

// Sessions lists every session with at least one stored snapshot
func (s *SnapshotStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM graph_snapshots GROUP BY session_id ORDER BY MAX(id) DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan session id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Prune keeps only the newest keep snapshots of a session and returns how
// many were removed.
func (s *SnapshotStore) Prune(ctx context.Context, sessionID string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	query := `
		DELETE FROM graph_snapshots
		WHERE session_id = ? AND id NOT IN (
			SELECT id FROM graph_snapshots WHERE session_id = ? ORDER BY id DESC LIMIT ?
		)
	`

	result, err := s.db.ExecContext(ctx, query, sessionID, sessionID, keep)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to prune snapshots of session %s", sessionID)
	}

	n, _ := result.RowsAffected()
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (snapshot.Record, error) {
	var rec snapshot.Record
	var data, publishedAt string
	if err := row.Scan(&rec.SessionID, &rec.Revision, &data, &rec.Nodes, &rec.Edges, &publishedAt); err != nil {
		return snapshot.Record{}, err
	}
	rec.Data = []byte(data)
	rec.PublishedAt, _ = time.Parse(time.RFC3339Nano, publishedAt)
	return rec, nil
}
