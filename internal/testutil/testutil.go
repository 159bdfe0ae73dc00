// Package testutil provides helpers shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/database"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

// OriginalHostHeader carries the host a redirected request was meant for.
const OriginalHostHeader = "X-Original-Host"

// NewTestDB creates a migrated database in a temp directory that is removed
// when the test ends.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// LogBuffer collects JSON log lines for assertions.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Lines returns the non-empty lines written so far.
func (b *LogBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, l := range bytes.Split(b.buf.Bytes(), []byte("\n")) {
		if len(l) > 0 {
			out = append(out, string(l))
		}
	}
	return out
}

// NewBufferLogger returns a logger writing JSON into the returned buffer.
func NewBufferLogger() (zerolog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return zerolog.New(buf), buf
}

// RedirectTransport sends every request to target, keeping path and query.
// The original host is passed in OriginalHostHeader.
type RedirectTransport struct {
	Target *url.URL
	Base   http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (rt *RedirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set(OriginalHostHeader, req.URL.Host)
	r.URL.Scheme = rt.Target.Scheme
	r.URL.Host = rt.Target.Host
	r.Host = rt.Target.Host

	resp, err := rt.Base.RoundTrip(r)
	if resp != nil {
		// Redirects and final URLs resolve against the original host.
		resp.Request = req
	}
	return resp, err
}

// RedirectClient returns a client whose requests all land on server.
func RedirectClient(server *httptest.Server) *http.Client {
	target, _ := url.Parse(server.URL)
	return &http.Client{
		Transport: &RedirectTransport{Target: target, Base: server.Client().Transport},
	}
}

// NewEnv builds an adapter environment whose downloads all hit server.
func NewEnv(server *httptest.Server) sites.Env {
	base := downloader.New(downloader.Options{
		Client:  RedirectClient(server),
		Timeout: 5 * time.Second,
		Logger:  zerolog.Nop(),
	})
	return sites.Env{
		Scrape:       base,
		Search:       base,
		ImageBase:    base,
		ImageRetries: 1,
		Logger:       zerolog.Nop(),
	}
}
