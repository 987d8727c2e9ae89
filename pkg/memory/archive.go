package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Archive stores completed exchanges in SQLite.
type Archive struct {
	db *sql.DB
}

// NewArchive opens (or creates) the archive database at path.
// Use ":memory:" for an ephemeral archive.
func NewArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a := &Archive{db: db}
	if err := a.init(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) init() error {
	_, err := a.db.Exec(`CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		utterance_id TEXT NOT NULL,
		prompt TEXT NOT NULL,
		reply TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Record appends one exchange.
func (a *Archive) Record(ctx context.Context, ex Exchange) error {
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	_, err := a.db.ExecContext(ctx,
		"INSERT INTO exchanges (utterance_id, prompt, reply, created_at) VALUES (?, ?, ?, ?)",
		ex.UtteranceID, ex.Prompt, ex.Reply, ex.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	return nil
}

// RecentExchanges returns up to n exchanges, newest first.
func (a *Archive) RecentExchanges(ctx context.Context, n int) ([]Exchange, error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT utterance_id, prompt, reply, created_at FROM exchanges ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var list []Exchange
	for rows.Next() {
		var ex Exchange
		if err := rows.Scan(&ex.UtteranceID, &ex.Prompt, &ex.Reply, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		list = append(list, ex)
	}
	return list, rows.Err()
}

// Count returns the total number of archived exchanges.
func (a *Archive) Count(ctx context.Context) (int64, error) {
	var count int64
	err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exchanges").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count exchanges: %w", err)
	}
	return count, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}
