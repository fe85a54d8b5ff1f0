package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Prune deletes entries fetched more than maxAge ago and records when it
// ran. It returns the number of rows removed.
func (c *Cache) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := c.now()
	res, err := tx.ExecContext(ctx, `DELETE FROM blobs WHERE fetched_at < ?`, now.Add(-maxAge).UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO meta (key, value) VALUES ('last_pruned', ?)
	`, strconv.FormatInt(now.Unix(), 10)); err != nil {
		return 0, fmt.Errorf("failed to record prune: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return removed, nil
}

// LastPruned returns when Prune last ran, zero if never
func (c *Cache) LastPruned(ctx context.Context) (time.Time, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'last_pruned'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last prune: %w", err)
	}
	sec, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt last_pruned %q: %w", value, err)
	}
	return time.Unix(sec, 0), nil
}

// PruneIfDue prunes at most once per interval
func (c *Cache) PruneIfDue(ctx context.Context, interval, maxAge time.Duration) (int64, error) {
	last, err := c.LastPruned(ctx)
	if err != nil {
		return 0, err
	}
	if !last.IsZero() && c.now().Sub(last) < interval {
		return 0, nil
	}
	return c.Prune(ctx, maxAge)
}
