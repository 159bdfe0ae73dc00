package search

import (
	"strings"

	"github.com/folio/folio/internal/catalog"
)

// Category selects which sources a search reaches.
type Category string

const (
	CategoryAll     Category = "all"
	CategoryMovieTV Category = "movietv"
	CategoryBook    Category = "book"
	CategoryMusic   Category = "music"
	CategoryPodcast Category = "podcast"
)

// route is the fixed set of sources one category invokes.
type route struct {
	peers        bool
	peerCategory string
	sources      []catalog.SiteName
	allowed      []catalog.ItemCategory
}

var dispatch = map[Category]route{
	CategoryAll: {
		peers: true,
		sources: []catalog.SiteName{
			catalog.SiteTMDB,
			catalog.SiteBibliotekDK,
			catalog.SiteGoogleBooks,
			catalog.SiteGoodreads,
			catalog.SiteSpotify,
			catalog.SiteBandcamp,
		},
	},
	CategoryMovieTV: {
		peers:        true,
		peerCategory: "movie,tv",
		sources:      []catalog.SiteName{catalog.SiteTMDB},
		allowed:      []catalog.ItemCategory{catalog.CategoryMovie, catalog.CategoryTV},
	},
	CategoryBook: {
		peers:        true,
		peerCategory: "book",
		sources: []catalog.SiteName{
			catalog.SiteBibliotekDK,
			catalog.SiteGoogleBooks,
			catalog.SiteGoodreads,
		},
		allowed: []catalog.ItemCategory{catalog.CategoryBook},
	},
	CategoryMusic: {
		peers:        true,
		peerCategory: "music",
		sources:      []catalog.SiteName{catalog.SiteSpotify, catalog.SiteBandcamp},
		allowed:      []catalog.ItemCategory{catalog.CategoryMusic},
	},
	CategoryPodcast: {
		sources: []catalog.SiteName{catalog.SiteApplePodcast},
		allowed: []catalog.ItemCategory{catalog.CategoryPodcast},
	},
}

// ParseCategory maps a request value onto a Category. The empty value is
// CategoryAll.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return CategoryAll, true
	}
	_, ok := dispatch[c]
	return c, ok
}

// Sources returns the source names c invokes, in result order. Peers are
// reported as the fediverse site and always come first.
func (c Category) Sources() []catalog.SiteName {
	r, ok := dispatch[c]
	if !ok {
		return nil
	}
	out := make([]catalog.SiteName, 0, len(r.sources)+1)
	if r.peers {
		out = append(out, catalog.SiteFediverse)
	}
	return append(out, r.sources...)
}

func (r route) accepts(c catalog.ItemCategory) bool {
	if len(r.allowed) == 0 {
		return true
	}
	for _, a := range r.allowed {
		if a == c {
			return true
		}
	}
	return false
}
