package tmdb

import (
	"testing"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/sites"
)

func TestAdapters_PatternsAcceptHostPrefixes(t *testing.T) {
	reg := sites.NewBuilder().MustRegister(NewMovie(sites.Env{}, Config{}), NewTV(sites.Env{}, Config{})).Build()
	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	tests := []struct {
		url    string
		idType catalog.IDType
		id     string
	}{
		{"https://www.themoviedb.org/movie/438631-dune", catalog.IDTypeTMDBMovie, "438631"},
		{"https://themoviedb.org/movie/438631", catalog.IDTypeTMDBMovie, "438631"},
		{"https://m.themoviedb.org/movie/438631-dune?language=fr", catalog.IDTypeTMDBMovie, "438631"},
		{"http://THEMOVIEDB.org/tv/1399-game-of-thrones", catalog.IDTypeTMDBTV, "1399"},
	}
	for _, tt := range tests {
		site, err := reg.SiteByURL(tt.url)
		if err != nil {
			t.Errorf("SiteByURL(%q) error = %v", tt.url, err)
			continue
		}
		if site.Info().IDType != tt.idType || site.IDValue != tt.id {
			t.Errorf("SiteByURL(%q) = %s/%s, want %s/%s", tt.url, site.Info().IDType, site.IDValue, tt.idType, tt.id)
		}
	}

	for _, u := range []string{"https://notthemoviedb.org/movie/1", "https://www.themoviedb.org/person/1"} {
		if _, err := reg.SiteByURL(u); err == nil {
			t.Errorf("SiteByURL(%q) matched, want no match", u)
		}
	}
}
