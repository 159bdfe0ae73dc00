package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/downloader"
)

// CacheStore persists downloader responses so they survive restarts.
type CacheStore struct {
	db     *DB
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewCacheStore creates a cache over db. A non-positive ttl uses the
// downloader default.
func NewCacheStore(db *DB, ttl time.Duration, logger zerolog.Logger) *CacheStore {
	if ttl <= 0 {
		ttl = downloader.DefaultCacheTTL
	}
	return &CacheStore{
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// Get implements downloader.Cache. Storage errors count as a miss.
func (c *CacheStore) Get(ctx context.Context, key string) (*downloader.Response, bool) {
	row := c.db.conn.QueryRowContext(ctx,
		`SELECT final_url, status_code, headers, body FROM download_cache WHERE url = ? AND expires_at > ?`,
		key, c.now().Unix())

	var (
		resp    downloader.Response
		headers string
	)
	if err := row.Scan(&resp.URL, &resp.StatusCode, &headers, &resp.Body); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logger.Warn().Err(err).Str("url", key).Msg("Cache read failed")
		}
		return nil, false
	}
	resp.Header = http.Header{}
	if err := json.Unmarshal([]byte(headers), &resp.Header); err != nil {
		c.logger.Warn().Err(err).Str("url", key).Msg("Cache entry has corrupt headers")
		return nil, false
	}
	return &resp, true
}

// Set implements downloader.Cache.
func (c *CacheStore) Set(ctx context.Context, key string, resp *downloader.Response, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	headers, err := json.Marshal(resp.Header)
	if err != nil {
		c.logger.Error().Err(err).Str("url", key).Msg("Cache entry headers not encodable")
		return
	}
	body := resp.Body
	if body == nil {
		body = []byte{}
	}
	_, err = c.db.conn.ExecContext(ctx,
		`INSERT INTO download_cache (url, final_url, status_code, headers, body, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
		   final_url = excluded.final_url,
		   status_code = excluded.status_code,
		   headers = excluded.headers,
		   body = excluded.body,
		   expires_at = excluded.expires_at`,
		key, resp.URL, resp.StatusCode, string(headers), body, c.now().Add(ttl).Unix())
	if err != nil {
		c.logger.Error().Err(err).Str("url", key).Msg("Cache write failed")
	}
}

// Purge deletes expired entries and returns how many were removed.
func (c *CacheStore) Purge(ctx context.Context) (int, error) {
	res, err := c.db.conn.ExecContext(ctx, `DELETE FROM download_cache WHERE expires_at <= ?`, c.now().Unix())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
