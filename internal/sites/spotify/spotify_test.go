package spotify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/sites"
	"github.com/folio/folio/internal/testutil"
)

func TestClientCredentials_Token(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
	}))
	defer server.Close()

	p := NewClientCredentials("id", "secret", server.URL+"/api/token", server.Client())
	for range 2 {
		tok, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok", tok)
	}
	assert.Equal(t, 1, calls, "token is reused until expiry")
}

func TestClientCredentials_Unconfigured(t *testing.T) {
	_, err := NewClientCredentials("", "", "", nil).Token(context.Background())
	assert.ErrorIs(t, err, sites.ErrNoToken)
}

func TestAlbum_Scrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/albums/65KwtzkJXw7oT819NFWmEP":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `{"id":"65KwtzkJXw7oT819NFWmEP","name":"Dune (Original Motion Picture Soundtrack)",
				"release_date":"2021-09-17","label":"WaterTower Music","genres":[],
				"artists":[{"name":"Hans Zimmer"}],
				"images":[{"url":"https://i.scdn.co/image/small","width":64,"height":64},{"url":"https://i.scdn.co/image/big","width":640,"height":640}],
				"external_ids":{"upc":"794043210372"},
				"tracks":{"items":[{"name":"Dream of Arrakis"},{"name":"Herald of the Change"}]}}`)
		case "/image/big":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	a := NewAlbum(testutil.NewEnv(server), "", sites.StaticToken("tok"))
	rc, err := a.Scrape(context.Background(), "65KwtzkJXw7oT819NFWmEP")
	require.NoError(t, err)

	assert.Equal(t, "Dune (Original Motion Picture Soundtrack)", rc.Metadata.Title)
	assert.Equal(t, []string{"Hans Zimmer"}, rc.Metadata.Artists)
	assert.Equal(t, "Dream of Arrakis\nHerald of the Change", rc.Metadata.TrackList)
	assert.Equal(t, "https://i.scdn.co/image/big", rc.Metadata.CoverImageURL)
	assert.Equal(t, "794043210372", rc.LookupIDs[catalog.IDTypeGTIN])
	assert.Equal(t, ".jpg", rc.CoverImageExt)
}

func TestAlbum_NoTokenIsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a token")
	}))
	defer server.Close()

	_, err := NewAlbum(testutil.NewEnv(server), "", sites.StaticToken("")).Scrape(context.Background(), "x")
	assert.ErrorIs(t, err, catalog.ErrFetch)
	assert.ErrorIs(t, err, sites.ErrNoToken)
}

func TestSearcher_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "album", q.Get("type"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "5", q.Get("offset"))
		_, _ = io.WriteString(w, `{"albums":{"items":[
			{"id":"a1","name":"Dune","release_date":"2021","artists":[{"name":"Hans Zimmer"},{"name":"Loire"}]},
			{"id":"","name":"broken"}
		]}}`)
	}))
	defer server.Close()

	items, err := NewSearcher(testutil.NewEnv(server), "", sites.StaticToken("tok")).Search(context.Background(), "dune", 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://open.spotify.com/album/a1", items[0].SourceURL)
	assert.Equal(t, "2021 Hans Zimmer, Loire", items[0].Subtitle)
	assert.Equal(t, catalog.CategoryMusic, items[0].Category)
}
