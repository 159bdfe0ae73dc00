package database

import (
	"context"
	"fmt"
	"time"
)

// PeerStore keeps the last known peer list so a restart can serve peers
// before the directory has been refreshed.
type PeerStore struct {
	db *DB
}

// NewPeerStore creates a peer store over db.
func NewPeerStore(db *DB) *PeerStore {
	return &PeerStore{db: db}
}

// Replace swaps the stored snapshot for hosts.
func (s *PeerStore) Replace(ctx context.Context, hosts []string) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM peers`); err != nil {
		return fmt.Errorf("clear peers: %w", err)
	}
	now := time.Now().Unix()
	for _, h := range hosts {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO peers (host, refreshed_at) VALUES (?, ?)`, h, now); err != nil {
			return fmt.Errorf("insert peer %s: %w", h, err)
		}
	}
	return tx.Commit()
}

// List returns the stored hosts in name order.
func (s *PeerStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT host FROM peers ORDER BY host`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}
