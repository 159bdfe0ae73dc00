package bibliotekdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
	"github.com/folio/folio/internal/testutil"
)

const (
	testWorkID = "work-of:870970-basis:62101946"
	testPID    = "870970-basis:62101946"
)

const workJSON = `{
  "data": {"work": {
    "workId": "work-of:870970-basis:62101946",
    "titles": {"full": ["Klit"]},
    "abstract": ["Paul Atreides og ørkenplaneten Arrakis"],
    "creators": [{"display": "Frank Herbert"}],
    "manifestations": {"all": [
      {"pid": "870970-basis:62101946",
       "edition": {"publicationYear": {"display": "2021"}},
       "creators": [{"display": "Frank Herbert"}, {"display": "Mich Vraa"}],
       "publisher": ["Gyldendal"],
       "identifiers": [{"type": "FAUST", "value": "62101946"}, {"type": "ISBN", "value": "978-87-02-30935-5"}],
       "cover": {"detail": "https://bibliotek.dk/cover/small.jpg", "origin": "fbiinfo"}},
      {"pid": "870970-basis:23412345",
       "edition": {"publicationYear": {"display": "[2003]"}},
       "creators": [{"display": "Frank Herbert"}],
       "identifiers": [],
       "cover": {"detail": "https://moreinfo.addi.dk/cover/large.jpg", "origin": "moreinfo"}}
    ]}
  }}
}`

func nextDataPage(t *testing.T) string {
	t.Helper()
	nd := map[string]any{
		"props": map[string]any{
			"pageProps": map[string]any{
				"initialData": map[string]json.RawMessage{
					`["/api", "query workJsonLd($workId: String!)"]`: json.RawMessage(workJSON),
					`["/api", "query other"]`:                        json.RawMessage(`{}`),
				},
			},
		},
	}
	b, err := json.Marshal(nd)
	require.NoError(t, err)
	return fmt.Sprintf(`<html><head><script id="__NEXT_DATA__" type="application/json">%s</script></head><body></body></html>`, b)
}

func newServer(t *testing.T, page string, pageHits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cover/large.jpg":
			w.Header().Set("Content-Type", "image/JPEG")
			_, _ = w.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
		case r.URL.Path == "/cover/small.jpg":
			w.Header().Set("Content-Type", "image/jpg")
			_, _ = w.Write([]byte{0xff, 0xd8})
		default:
			if pageHits != nil {
				pageHits.Add(1)
			}
			assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, page)
		}
	}))
}

func TestEdition_Scrape(t *testing.T) {
	server := newServer(t, nextDataPage(t), nil)
	defer server.Close()

	a := NewEdition(testutil.NewEnv(server))
	rc, err := a.Scrape(context.Background(), testWorkID+"/"+testPID)
	require.NoError(t, err)

	md := rc.Metadata
	assert.Equal(t, "Klit", md.Title)
	assert.Equal(t, []string{"Frank Herbert", "Mich Vraa"}, md.Authors)
	assert.Equal(t, 2021, md.PubYear)
	assert.Equal(t, "Gyldendal", md.PubHouse)
	assert.Equal(t, "9788702309355", md.ISBN)
	assert.Equal(t, "da", md.Language)
	assert.Equal(t, []catalog.LocalizedText{{Lang: "da", Text: "Paul Atreides og ørkenplaneten Arrakis"}}, md.LocalizedDescription)
	assert.Equal(t, "https://moreinfo.addi.dk/cover/large.jpg", md.CoverImageURL, "moreinfo cover preferred")
	assert.Equal(t, ".jpg", rc.CoverImageExt, "image/JPEG rewritten before validation")
	assert.Len(t, rc.CoverImage, 4)
	assert.Equal(t, "9788702309355", rc.LookupIDs[catalog.IDTypeISBN])

	require.Len(t, rc.RequiredResources, 1)
	req := rc.RequiredResources[0]
	assert.Equal(t, catalog.ModelWork, req.Model)
	assert.Equal(t, catalog.IDTypeBibliotekDKWork, req.IDType)
	assert.Equal(t, testWorkID, req.IDValue)
}

func TestEdition_UnknownPID(t *testing.T) {
	server := newServer(t, nextDataPage(t), nil)
	defer server.Close()

	_, err := NewEdition(testutil.NewEnv(server)).Scrape(context.Background(), testWorkID+"/870970-basis:0")
	assert.ErrorIs(t, err, catalog.ErrParse)
}

func TestWork_ScrapeReusesOnePage(t *testing.T) {
	var hits atomic.Int32
	server := newServer(t, nextDataPage(t), &hits)
	defer server.Close()

	rc, err := NewWork(testutil.NewEnv(server)).Scrape(context.Background(), testWorkID)
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, "Klit", rc.Metadata.Title)
	assert.Equal(t, []string{"Frank Herbert"}, rc.Metadata.Authors)
	require.Len(t, rc.RequiredResources, 2)

	first := rc.RequiredResources[0]
	assert.Equal(t, catalog.IDTypeBibliotekDKEdition, first.IDType)
	assert.Equal(t, testWorkID+"/"+testPID, first.IDValue)
	require.NotNil(t, first.Content)
	assert.Equal(t, 2021, first.Content.Metadata.PubYear)
	assert.Empty(t, first.Content.RequiredResources, "embedded editions do not point back at the work")

	second := rc.RequiredResources[1].Content
	assert.Equal(t, 2003, second.Metadata.PubYear)
	assert.Empty(t, second.LookupIDs)
}

func TestScrape_MissingNextDataIsParseError(t *testing.T) {
	var hits atomic.Int32
	server := newServer(t, `<html><body>maintenance</body></html>`, &hits)
	defer server.Close()

	env := testutil.NewEnv(server)
	env.Scrape = downloader.NewRetry(env.Scrape, 3)

	_, err := NewWork(env).Scrape(context.Background(), testWorkID)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrParse)
	assert.False(t, catalog.IsRetryable(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestAdapters_RegistryRoundTrip(t *testing.T) {
	env := sites.Env{}
	r := sites.NewBuilder().MustRegister(NewEdition(env), NewWork(env)).Build()
	require.NoError(t, r.Validate())

	site, err := r.SiteByURL("https://bibliotek.dk/materiale/klit/" + testWorkID + "/" + testPID + "?utm_source=x")
	require.NoError(t, err)
	assert.Equal(t, catalog.IDTypeBibliotekDKEdition, site.Info().IDType)

	site, err = r.SiteByURL("https://bibliotek.dk/materiale/klit/" + testWorkID)
	require.NoError(t, err)
	assert.Equal(t, catalog.IDTypeBibliotekDKWork, site.Info().IDType)
	assert.Equal(t, "https://bibliotek.dk/materiale/title/"+testWorkID, site.URL)

	wrongOrder := sites.NewBuilder().MustRegister(NewWork(env), NewEdition(env)).Build()
	assert.Error(t, wrongOrder.Validate())
}

func TestSearcher_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/SimpleSearch/graphql", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body struct {
			Variables struct {
				Limit   int                 `json:"limit"`
				Offset  int                 `json:"offset"`
				Q       map[string]string   `json:"q"`
				Filters map[string][]string `json:"filters"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 5, body.Variables.Limit)
		assert.Equal(t, 5, body.Variables.Offset)
		assert.Equal(t, "Dune", body.Variables.Q["all"])
		assert.Equal(t, []string{"literature"}, body.Variables.Filters["workTypes"])

		_, _ = io.WriteString(w, `{"data":{"search":{"works":[
			{"workId":"work-of:1","titles":{"full":["Klit"]},"creators":[{"display":"Frank Herbert"},{"display":"Mich Vraa"}],
			 "abstract":["Ørken"],"manifestations":{"mostRelevant":[{"cover":{"detail":"https://x/c.jpg"}}]}},
			{"workId":"work-of:2","titles":{"full":["Klit 2"]},"creators":[],"abstract":[],"manifestations":{"mostRelevant":[]}},
			{"workId":"","titles":{"full":[]}}
		]}}}`)
	}))
	defer server.Close()

	s := NewSearcher(testutil.NewEnv(server), "", sites.StaticToken("secret"))
	items, err := s.Search(context.Background(), "Dune", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, catalog.SearchResultItem{
		Category:      catalog.CategoryBook,
		SourceSite:    catalog.SiteBibliotekDK,
		SourceURL:     "https://bibliotek.dk/materiale/title/work-of:1",
		DisplayTitle:  "Klit",
		Subtitle:      "Frank Herbert, Mich Vraa",
		Brief:         "Ørken",
		CoverImageURL: "https://x/c.jpg",
	}, items[0])
	assert.Empty(t, items[1].Subtitle)
	assert.Empty(t, items[1].CoverImageURL)
}

func TestSearcher_NoToken(t *testing.T) {
	s := NewSearcher(sites.Env{}, "", sites.StaticToken(""))
	_, err := s.Search(context.Background(), "Dune", 1)
	assert.ErrorIs(t, err, catalog.ErrFetch)
}
