// Package sites maps URLs and identifiers onto the adapter responsible for
// them. Adapters are registered once through a Builder; the resulting
// Registry is immutable and safe for concurrent lookups.
package sites

import (
	"context"

	"github.com/folio/folio/internal/catalog"
)

// Info is the static descriptor of an adapter.
type Info struct {
	Site          catalog.SiteName
	IDType        catalog.IDType
	Model         catalog.ModelKind
	URLPatterns   []string // regexes, capture group 1 is the id
	SampleIDs     []string // ids used to check pattern round-trips
	Category      catalog.ItemCategory
	ProxyRequired bool
}

// Adapter scrapes one external source for one identifier namespace.
type Adapter interface {
	Info() Info
	// IDToURL builds the canonical URL for id. It performs no I/O.
	IDToURL(id string) string
	// Scrape fetches and parses the resource identified by id.
	Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error)
}

// Searcher is the search capability of a source.
type Searcher interface {
	Name() catalog.SiteName
	Search(ctx context.Context, query string, page int) ([]catalog.SearchResultItem, error)
}

// SearchPageSize is the result count requested from sources that page.
const SearchPageSize = 5

// Offset returns the zero-based offset for a 1-based page. Pages below one
// are treated as the first page.
func Offset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * SearchPageSize
}

// LinkBypasser is implemented by adapters that can build content straight
// from a required-resource declaration without fetching.
type LinkBypasser interface {
	BypassScrape(link catalog.RequiredResource) (*catalog.ResourceContent, bool)
}
