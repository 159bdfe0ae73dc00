package sites

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/catalog"
)

type fakeAdapter struct {
	info   Info
	prefix string
}

func (f *fakeAdapter) Info() Info               { return f.info }
func (f *fakeAdapter) IDToURL(id string) string { return f.prefix + id }
func (f *fakeAdapter) Scrape(context.Context, string) (*catalog.ResourceContent, error) {
	return catalog.NewResourceContent(catalog.Metadata{Title: string(f.info.IDType)}), nil
}

func newFake(idType catalog.IDType, prefix string, patterns []string, samples ...string) *fakeAdapter {
	return &fakeAdapter{
		info: Info{
			Site:        catalog.SiteName(idType),
			IDType:      idType,
			Model:       catalog.ModelEdition,
			URLPatterns: patterns,
			SampleIDs:   samples,
		},
		prefix: prefix,
	}
}

func TestRegistry_SiteByURL(t *testing.T) {
	edition := newFake("edition", "https://books.example/e/",
		[]string{`https://books\.example/e/(\d+)`}, "42")
	r := NewBuilder().MustRegister(edition).Build()

	tests := []struct {
		name string
		url  string
		id   string
	}{
		{"exact", "https://books.example/e/42", "42"},
		{"http upgraded", "http://books.example/e/42", "42"},
		{"uppercase host", "https://BOOKS.example/e/42", "42"},
		{"trailing path", "https://books.example/e/42/reviews", "42"},
		{"tracking params", "https://books.example/e/42?utm_source=x&fbclid=y#top", "42"},
		{"whitespace", "  https://books.example/e/42  ", "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site, err := r.SiteByURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.id, site.IDValue)
			assert.Equal(t, "https://books.example/e/42", site.URL)
		})
	}

	for _, u := range []string{
		"https://books.example/e/42abc",
		"https://books.example/e/",
		"https://evil.example/?u=https://books.example/e/42",
		"not a url",
	} {
		_, err := r.SiteByURL(u)
		assert.ErrorIs(t, err, catalog.ErrNoMatchingSite, u)
	}
}

func TestRegistry_FirstRegisteredWins(t *testing.T) {
	specific := newFake("specific", "https://x.example/book/",
		[]string{`https://x\.example/book/(\d+)`})
	broad := newFake("broad", "https://x.example/",
		[]string{`https://x\.example/([a-z]+/\d+)`})

	r := NewBuilder().MustRegister(specific, broad).Build()
	site, err := r.SiteByURL("https://x.example/book/7")
	require.NoError(t, err)
	assert.Equal(t, catalog.IDType("specific"), site.Info().IDType)

	r = NewBuilder().MustRegister(broad, specific).Build()
	site, err = r.SiteByURL("https://x.example/book/7")
	require.NoError(t, err)
	assert.Equal(t, catalog.IDType("broad"), site.Info().IDType)
	assert.Equal(t, "book/7", site.IDValue)
}

func TestRegistry_SiteByID(t *testing.T) {
	r := NewBuilder().MustRegister(newFake("edition", "https://books.example/e/",
		[]string{`https://books\.example/e/(\d+)`})).Build()

	site, err := r.SiteByID("edition", "9")
	require.NoError(t, err)
	assert.Equal(t, "https://books.example/e/9", site.URL)

	content, err := site.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "edition", content.Metadata.Title)

	_, err = r.SiteByID("nope", "9")
	assert.ErrorIs(t, err, catalog.ErrUnsupportedIDType)
}

func TestBuilder_RejectsBadRegistrations(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Register(newFake("a", "", []string{`https://a\.example/(\d+)`})))
	assert.Error(t, b.Register(newFake("a", "", []string{`https://a2\.example/(\d+)`})), "duplicate id type")
	assert.Error(t, b.Register(newFake("b", "", []string{`https://b\.example/(`})), "bad regex")
	assert.Error(t, b.Register(newFake("c", "", []string{`https://c\.example/\d+`})), "no capture group")
	assert.Error(t, b.Register(newFake("", "", nil)), "no id type")
}

func TestRegistry_ValidateDetectsOverlap(t *testing.T) {
	specific := newFake("specific", "https://x.example/book/",
		[]string{`https://x\.example/book/(\d+)`}, "7")
	broad := newFake("broad", "https://x.example/",
		[]string{`https://x\.example/([a-z]+/\d+)`}, "film/3")

	require.NoError(t, NewBuilder().MustRegister(specific, broad).Build().Validate())

	err := NewBuilder().MustRegister(broad, specific).Build().Validate()
	require.Error(t, err)
	var overlap *OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, catalog.IDType("specific"), overlap.Want)
	assert.Equal(t, catalog.IDType("broad"), overlap.Got)
}

func TestRegistry_ValidateDetectsUnmatchedSample(t *testing.T) {
	a := newFake("a", "https://a.example/item/", []string{`https://a\.example/(\d+)`}, "5")
	err := NewBuilder().MustRegister(a).Build().Validate()
	var overlap *OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Empty(t, overlap.Got)
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	r := NewBuilder().MustRegister(newFake("edition", "https://books.example/e/",
		[]string{`https://books\.example/e/(\d+)`})).Build()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.SiteByURL("https://books.example/e/1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://books.google.com/books?id=abc&hl=en",
		NormalizeURL("http://books.google.com/books?id=abc&utm_medium=x&hl=en#p1"))
	assert.Equal(t, "https://a.example/p", NormalizeURL("https://A.EXAMPLE/p?gclid=1"))
	assert.Equal(t, "garbage", NormalizeURL(" garbage "))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(0))
	assert.Equal(t, 0, Offset(1))
	assert.Equal(t, 10, Offset(3))
}

func TestStaticToken(t *testing.T) {
	_, err := StaticToken("").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
	tok, err := StaticToken("t").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t", tok)
}
