// Package catalog defines the shared vocabulary of the catalog engine:
// categories, site names, identifier namespaces and the normalized shapes
// that search and scrape calls produce.
package catalog

import "strings"

// ItemCategory is the closed set of catalog categories.
type ItemCategory string

const (
	CategoryBook        ItemCategory = "book"
	CategoryMovie       ItemCategory = "movie"
	CategoryTV          ItemCategory = "tv"
	CategoryMusic       ItemCategory = "music"
	CategoryGame        ItemCategory = "game"
	CategoryPodcast     ItemCategory = "podcast"
	CategoryPerformance ItemCategory = "performance"
)

var allCategories = []ItemCategory{
	CategoryBook,
	CategoryMovie,
	CategoryTV,
	CategoryMusic,
	CategoryGame,
	CategoryPodcast,
	CategoryPerformance,
}

// Categories returns every known category.
func Categories() []ItemCategory {
	out := make([]ItemCategory, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory maps a raw value onto a known category.
func ParseCategory(s string) (ItemCategory, bool) {
	v := ItemCategory(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range allCategories {
		if c == v {
			return c, true
		}
	}
	return "", false
}

// SiteName identifies an external source. One site may back several adapters.
type SiteName string

const (
	SiteUnknown      SiteName = "unknown"
	SiteBibliotekDK  SiteName = "bibliotekdk"
	SiteGoodreads    SiteName = "goodreads"
	SiteGoogleBooks  SiteName = "googlebooks"
	SiteDouban       SiteName = "douban"
	SiteTMDB         SiteName = "tmdb"
	SiteSpotify      SiteName = "spotify"
	SiteBandcamp     SiteName = "bandcamp"
	SiteRSS          SiteName = "rss"
	SiteApplePodcast SiteName = "apple_podcast"
	SiteFediverse    SiteName = "fedi"
)

// IDType is an identifier namespace. It keys adapter registration and tags
// the external ids found on scraped metadata.
type IDType string

const (
	IDTypeISBN               IDType = "isbn"
	IDTypeISBN10             IDType = "isbn10"
	IDTypeCUBN               IDType = "cubn"
	IDTypeIMDB               IDType = "imdb"
	IDTypeGTIN               IDType = "gtin"
	IDTypeRSS                IDType = "rss"
	IDTypeBibliotekDKEdition IDType = "bibliotekdk_edition"
	IDTypeBibliotekDKWork    IDType = "bibliotekdk_work"
	IDTypeGoodreads          IDType = "goodreads"
	IDTypeGoodreadsWork      IDType = "goodreads_work"
	IDTypeGoogleBooks        IDType = "googlebooks"
	IDTypeDoubanBook         IDType = "doubanbook"
	IDTypeDoubanBookWork     IDType = "doubanbook_work"
	IDTypeTMDBMovie          IDType = "tmdb_movie"
	IDTypeTMDBTV             IDType = "tmdb_tv"
	IDTypeSpotifyAlbum       IDType = "spotify_album"
	IDTypeBandcamp           IDType = "bandcamp"
)

// ModelKind is the kind of catalog record an adapter's output turns into.
type ModelKind string

const (
	ModelEdition ModelKind = "Edition"
	ModelWork    ModelKind = "Work"
	ModelMovie   ModelKind = "Movie"
	ModelTVShow  ModelKind = "TVShow"
	ModelAlbum   ModelKind = "Album"
	ModelPodcast ModelKind = "Podcast"
)
