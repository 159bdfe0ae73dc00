package bandcamp

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

const albumPage = `<html><head>
<script type="application/ld+json">{"@type":"MusicAlbum","name":"In the Pines",
 "datePublished":"12 Jun 2020 00:00:00 GMT","image":"https://f4.bcbits.com/img/a1_10.jpg",
 "keywords":["folk","Chicago"],"byArtist":{"name":"International Anthem"},
 "track":{"itemListElement":[{"position":1,"item":{"name":"Pines"}},{"position":2,"item":{"name":"Needles"}}]},
 "albumRelease":[{"musicReleaseFormat":"DigitalFormat","identifier":[{"name":"upc","value":"123456789012"}]}]}
</script></head><body>
<div id="name-section"><h2 class="trackTitle"> In the Pines </h2><h3><span><a href="/">International Anthem</a></span></h3></div>
</body></html>`

func TestAlbum_Scrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/album/in-the-pines":
			assert.Equal(t, "intlanthem.bandcamp.com", r.Header.Get(testutil.OriginalHostHeader))
			_, _ = io.WriteString(w, albumPage)
		case "/img/a1_10.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xff, 0xd8})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	rc, err := NewAlbum(testutil.NewEnv(server)).Scrape(context.Background(), "intlanthem.bandcamp.com/album/in-the-pines")
	require.NoError(t, err)

	md := rc.Metadata
	assert.Equal(t, "In the Pines", md.Title)
	assert.Equal(t, []string{"International Anthem"}, md.Artists)
	assert.Equal(t, "2020-06-12", md.ReleaseDate)
	assert.Equal(t, []string{"folk", "Chicago"}, md.Genres)
	assert.Equal(t, "Pines\nNeedles", md.TrackList)
	assert.Equal(t, "123456789012", rc.LookupIDs[catalog.IDTypeGTIN])
	assert.Equal(t, ".jpg", rc.CoverImageExt)
}

func TestAlbum_MissingTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><body>nothing</body></html>`)
	}))
	defer server.Close()

	_, err := NewAlbum(testutil.NewEnv(server)).Scrape(context.Background(), "x.bandcamp.com/album/y")
	assert.ErrorIs(t, err, catalog.ErrParse)
}

func TestAlbum_PatternMatchesSubdomains(t *testing.T) {
	env := testutil.NewEnv(httptest.NewServer(http.NotFoundHandler()))
	reg := sites.NewBuilder().MustRegister(NewAlbum(env)).Build()

	site, err := reg.SiteByURL("https://intlanthem.bandcamp.com/album/in-the-pines?from=search")
	require.NoError(t, err)
	assert.Equal(t, "intlanthem.bandcamp.com/album/in-the-pines", site.IDValue)

	_, err = reg.SiteByURL("https://intlanthem.bandcamp.com/track/pines")
	assert.ErrorIs(t, err, catalog.ErrNoMatchingSite)
}

func TestSearcher_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "a", q.Get("item_type"))
		assert.Equal(t, "results", q.Get("from"))
		assert.Equal(t, "1", q.Get("page"))
		_, _ = io.WriteString(w, `<ul>
<li class="searchresult data-search"><div class="art"><img src="https://f4.bcbits.com/img/x.jpg"></div>
 <div class="heading"> <a>Dune Dreams</a> </div>
 <div class="subhead"> by   Loire </div><div class="released">released May 1, 2020</div>
 <div class="itemurl"><a href="https://loire.bandcamp.com/album/dune-dreams?from=search&amp;search_item_id=1">x</a></div></li>
<li class="searchresult data-search"><div class="heading"></div></li>
</ul>`)
	}))
	defer server.Close()

	items, err := NewSearcher(testutil.NewEnv(server)).Search(context.Background(), "dune", 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://loire.bandcamp.com/album/dune-dreams", items[0].SourceURL)
	assert.Equal(t, "Dune Dreams", items[0].DisplayTitle)
	assert.Equal(t, "May 1, 2020 by Loire", items[0].Subtitle)
	assert.Equal(t, "https://f4.bcbits.com/img/x.jpg", items[0].CoverImageURL)
}
