package repository

import (
	"context"
	"database/sql"
	"time"
)

// RecentFile is one previously paired path, surfaced by the open-file prompt.
// Only the path is stored; sessions and capabilities are never persisted.
type RecentFile struct {
	Path         string
	PairCount    int
	LastPairedAt time.Time
}

// RecentFileRepo handles pairing history rows.
type RecentFileRepo struct{ db *sql.DB }

func NewRecentFileRepo(db *sql.DB) *RecentFileRepo { return &RecentFileRepo{db: db} }

// Touch records a successful pairing of path, creating the row if needed.
func (r *RecentFileRepo) Touch(ctx context.Context, path string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO recent_files(path, pair_count, last_paired_at)
	VALUES(?, 1, CURRENT_TIMESTAMP)
	ON CONFLICT(path) DO UPDATE SET pair_count = pair_count + 1, last_paired_at = CURRENT_TIMESTAMP
	`, path)
	return err
}

// List returns up to limit paths, most recently paired first.
func (r *RecentFileRepo) List(ctx context.Context, limit int) ([]RecentFile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT path, pair_count, last_paired_at FROM recent_files ORDER BY last_paired_at DESC, path ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecentFile
	for rows.Next() {
		var rf RecentFile
		if err := rows.Scan(&rf.Path, &rf.PairCount, &rf.LastPairedAt); err != nil {
			return nil, err
		}
		out = append(out, rf)
	}
	return out, rows.Err()
}

// Remove drops a path from the history, e.g. when it no longer exists.
func (r *RecentFileRepo) Remove(ctx context.Context, path string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recent_files WHERE path = ?`, path)
	return err
}
