package db

import (
	"context"
	"database/sql"

	"github.com/teranos/arbor/errors"
)

// Stats summarizes what the snapshot history holds
type Stats struct {
	Sessions  int    `json:"sessions"`
	Snapshots int    `json:"snapshots"`
	Newest    string `json:"newest,omitempty"`
}

// CollectStats counts stored sessions and snapshots
func CollectStats(ctx context.Context, db *sql.DB) (Stats, error) {
	var s Stats
	var newest sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT session_id), COUNT(*), MAX(published_at)
		FROM graph_snapshots`,
	).Scan(&s.Sessions, &s.Snapshots, &newest)
	if err != nil {
		return Stats{}, errors.Wrap(err, "failed to collect snapshot stats")
	}
	s.Newest = newest.String
	return s, nil
}
