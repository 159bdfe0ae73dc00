package federation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/database"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/testutil"
)

func TestNormalizeHosts(t *testing.T) {
	got := NormalizeHosts([]string{" Peer.Example ", "https://other.example/path", "peer.example", "", "third.example/api"})
	assert.Equal(t, []string{"peer.example", "other.example", "third.example"}, got)
}

func TestStaticDirectory(t *testing.T) {
	d := NewStaticDirectory([]string{"a.example", "A.example", "b.example"})
	peers, err := d.Peers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example", "b.example"}, peers)

	peers[0] = "mutated"
	again, _ := d.Peers(context.Background())
	assert.Equal(t, "a.example", again[0])
}

func TestFileDirectory_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("peers:\n  - one.example\n"), 0o644))

	d := NewFileDirectory(path, nil, zerolog.Nop())
	d.debounce = 10 * time.Millisecond
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	peers, _ := d.Peers(context.Background())
	assert.Equal(t, []string{"one.example"}, peers)

	require.NoError(t, os.WriteFile(path, []byte("peers:\n  - one.example\n  - two.example\n"), 0o644))
	require.Eventually(t, func() bool {
		peers, _ := d.Peers(context.Background())
		return len(peers) == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestFileDirectory_SnapshotFallback(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := database.NewPeerStore(db)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "peers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("peers: [one.example, two.example]\n"), 0o644))

	first := NewFileDirectory(path, store, zerolog.Nop())
	require.NoError(t, first.Refresh(ctx))

	stored, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"one.example", "two.example"}, stored)

	require.NoError(t, os.Remove(path))
	second := NewFileDirectory(path, store, zerolog.Nop())
	assert.Error(t, second.Refresh(ctx))

	peers, _ := second.Peers(ctx)
	assert.Equal(t, []string{"one.example", "two.example"}, peers)
}

type failingDirectory struct{}

func (failingDirectory) Peers(context.Context) ([]string, error) {
	return nil, errors.New("directory down")
}

func newPeerServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/catalog/search", r.URL.Path)
		assert.Equal(t, "Dune", r.URL.Query().Get("query"))
		assert.Equal(t, "book", r.URL.Query().Get("category"))

		switch r.Header.Get(testutil.OriginalHostHeader) {
		case "peer-a.example":
			_, _ = io.WriteString(w, `{"data":[
				{"url":"/book/1","display_title":"Dune","category":"book","cover_image_url":"/m/1.jpg",
				 "external_resources":[{"url":"https://www.goodreads.com/book/show/1"}]},
				{"url":"/book/2","display_title":"Dune (echo)","category":"book",
				 "external_resources":[{"url":"https://folio.example/book/9"}]}
			]}`)
		case "peer-b.example":
			_, _ = io.WriteString(w, `{"data":[{"url":"https://folio.example/book/3","display_title":"echo","category":"book"},
				{"url":"/book/4","display_title":"Dune Messiah","category":"book"}]}`)
		case "slow.example":
			time.Sleep(500 * time.Millisecond)
			_, _ = io.WriteString(w, `{"data":[{"url":"/book/5","display_title":"late"}]}`)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
}

func TestSearcher_FiltersEchoesAndKeepsOrder(t *testing.T) {
	var calls atomic.Int32
	server := newPeerServer(t, &calls)
	defer server.Close()

	logger, logs := testutil.NewBufferLogger()
	dl := downloader.New(downloader.Options{Client: testutil.RedirectClient(server), Logger: zerolog.Nop()})
	s := NewSearcher(dl, NewStaticDirectory([]string{"peer-a.example", "broken.example", "slow.example", "peer-b.example"}), Options{
		OwnDomains: []string{"folio.example"},
		Timeout:    100 * time.Millisecond,
		Logger:     logger,
	})

	items := s.Search(context.Background(), "Dune", "book")
	require.Len(t, items, 2)

	assert.Equal(t, "https://peer-a.example/book/1", items[0].SourceURL)
	assert.Equal(t, "https://peer-a.example/m/1.jpg", items[0].CoverImageURL)
	assert.Equal(t, catalog.CategoryBook, items[0].Category)
	assert.Equal(t, catalog.SiteFediverse, items[0].SourceSite)
	assert.Equal(t, "https://peer-b.example/book/4", items[1].SourceURL)

	assert.Equal(t, int32(4), calls.Load())
	assert.Len(t, logs.Lines(), 2, "one log line per failing peer")
}

func TestSearcher_EchoAndTimeoutInOneFanOut(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasCategory := r.URL.Query()["category"]
		assert.False(t, hasCategory, "category is omitted when searching all")

		switch r.Header.Get(testutil.OriginalHostHeader) {
		case "echo.example":
			_, _ = io.WriteString(w, `{"data":[{"url":"/book/7","display_title":"Dune (mirrored)","category":"book",
				"external_resources":[{"url":"https://catalog.folio.example/book/7"},{"url":"https://folio.example/book/7"}]}]}`)
		case "slow.example":
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		default:
			_, _ = io.WriteString(w, `{"data":[{"url":"/movie/8","display_title":"Dune: Part Two","category":"movie",
				"external_resources":[{"url":"https://www.themoviedb.org/movie/693134"}]}]}`)
		}
	}))
	defer server.Close()

	logger, logs := testutil.NewBufferLogger()
	dl := downloader.New(downloader.Options{Client: testutil.RedirectClient(server), Logger: zerolog.Nop()})
	s := NewSearcher(dl, NewStaticDirectory([]string{"echo.example", "slow.example", "other.example"}), Options{
		OwnDomains: []string{"folio.example"},
		Timeout:    100 * time.Millisecond,
		Logger:     logger,
	})

	items := s.Search(context.Background(), "Dune", "")
	require.Len(t, items, 1)
	assert.Equal(t, "https://other.example/movie/8", items[0].SourceURL)
	assert.Equal(t, catalog.CategoryMovie, items[0].Category)

	lines := logs.Lines()
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "slow.example", entry["peer"])
	assert.Equal(t, string(catalog.KindFetch), entry["kind"])
}

func TestSearcher_DirectoryFailure(t *testing.T) {
	s := NewSearcher(nil, failingDirectory{}, Options{Logger: zerolog.Nop()})
	assert.Empty(t, s.Search(context.Background(), "Dune", ""))
}
