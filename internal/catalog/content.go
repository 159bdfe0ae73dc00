package catalog

// LocalizedText is a text value tagged with a language code.
type LocalizedText struct {
	Lang string `json:"lang"`
	Text string `json:"text"`
}

// Metadata is the canonical field set a scrape produces. Absent values are
// left at their zero value.
type Metadata struct {
	Title                string          `json:"title"`
	Subtitle             string          `json:"subtitle,omitempty"`
	OrigTitle            string          `json:"orig_title,omitempty"`
	LocalizedTitle       []LocalizedText `json:"localized_title,omitempty"`
	LocalizedDescription []LocalizedText `json:"localized_description,omitempty"`
	Brief                string          `json:"brief,omitempty"`
	Authors              []string        `json:"author,omitempty"`
	Translators          []string        `json:"translator,omitempty"`
	Artists              []string        `json:"artist,omitempty"`
	Directors            []string        `json:"director,omitempty"`
	Genres               []string        `json:"genre,omitempty"`
	Language             string          `json:"language,omitempty"`
	PubHouse             string          `json:"pub_house,omitempty"`
	PubYear              int             `json:"pub_year,omitempty"`
	PubMonth             int             `json:"pub_month,omitempty"`
	ReleaseDate          string          `json:"release_date,omitempty"`
	Pages                int             `json:"pages,omitempty"`
	Binding              string          `json:"binding,omitempty"`
	Price                string          `json:"price,omitempty"`
	Series               string          `json:"series,omitempty"`
	ISBN                 string          `json:"isbn,omitempty"`
	TrackList            string          `json:"track_list,omitempty"`
	Hosts                []string        `json:"host,omitempty"`
	OfficialSite         string          `json:"official_site,omitempty"`
	CoverImageURL        string          `json:"cover_image_url,omitempty"`
}

// RequiredResource declares a resource that must be resolved before or
// alongside the one declaring it. Either IDValue or Content identifies it;
// when Content is set no further fetch is needed.
type RequiredResource struct {
	Model   ModelKind        `json:"model"`
	IDType  IDType           `json:"id_type"`
	IDValue string           `json:"id_value"`
	Title   string           `json:"title,omitempty"`
	URL     string           `json:"url,omitempty"`
	Content *ResourceContent `json:"content,omitempty"`
}

// ResourceContent is the normalized output of one scrape.
type ResourceContent struct {
	Metadata          Metadata           `json:"metadata"`
	CoverImage        []byte             `json:"-"`
	CoverImageExt     string             `json:"cover_image_extension,omitempty"`
	LookupIDs         map[IDType]string  `json:"lookup_ids,omitempty"`
	RequiredResources []RequiredResource `json:"required_resources,omitempty"`
}

// NewResourceContent returns content with an initialized lookup id map.
func NewResourceContent(md Metadata) *ResourceContent {
	return &ResourceContent{
		Metadata:  md,
		LookupIDs: make(map[IDType]string),
	}
}

// SetLookupID records a dedup key. Empty values are ignored so callers can
// pass optional ids straight through.
func (rc *ResourceContent) SetLookupID(t IDType, v string) {
	if v == "" {
		return
	}
	if rc.LookupIDs == nil {
		rc.LookupIDs = make(map[IDType]string)
	}
	rc.LookupIDs[t] = v
}

// Require appends a dependency declaration.
func (rc *ResourceContent) Require(r RequiredResource) {
	rc.RequiredResources = append(rc.RequiredResources, r)
}
