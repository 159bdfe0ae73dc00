package catalog

// SearchResultItem is a transient, display-only search hit. It carries no
// persisted identity; selecting it means re-scraping SourceURL.
type SearchResultItem struct {
	Category      ItemCategory `json:"category"`
	SourceSite    SiteName     `json:"source_site"`
	SourceURL     string       `json:"source_url"`
	DisplayTitle  string       `json:"display_title"`
	Subtitle      string       `json:"subtitle,omitempty"`
	Brief         string       `json:"brief,omitempty"`
	CoverImageURL string       `json:"cover_image_url,omitempty"`
}
