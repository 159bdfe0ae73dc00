// Package spotify reads albums from the Spotify Web API.
package spotify

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

// DefaultAPIBase is the Web API root.
const DefaultAPIBase = "https://api.spotify.com/v1"

const albumURL = "https://open.spotify.com/album/"

type image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type artist struct {
	Name string `json:"name"`
}

type albumResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AlbumType   string   `json:"album_type"`
	ReleaseDate string   `json:"release_date"`
	Label       string   `json:"label"`
	Genres      []string `json:"genres"`
	Artists     []artist `json:"artists"`
	Images      []image  `json:"images"`
	TotalTracks int      `json:"total_tracks"`
	ExternalIDs struct {
		UPC  string `json:"upc"`
		EAN  string `json:"ean"`
		ISRC string `json:"isrc"`
	} `json:"external_ids"`
	Tracks struct {
		Items []struct {
			Name        string `json:"name"`
			TrackNumber int    `json:"track_number"`
			DiscNumber  int    `json:"disc_number"`
		} `json:"items"`
	} `json:"tracks"`
}

// api performs authenticated GETs against the Web API.
type api struct {
	dl     downloader.Downloader
	base   string
	tokens sites.TokenProvider
}

func (a api) get(ctx context.Context, path string, params url.Values, v any) error {
	u := strings.TrimRight(a.base, "/") + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	tok, err := a.tokens.Token(ctx)
	if err != nil {
		return catalog.NewFetchError(catalog.SiteSpotify, u, err)
	}
	resp, err := a.dl.Download(ctx, downloader.Request{
		URL:     u,
		Headers: http.Header{"Authorization": []string{"Bearer " + tok}},
		NoCache: true,
	})
	if err != nil {
		return err
	}
	if err := resp.JSON(v); err != nil {
		return catalog.WrapParseError(catalog.SiteSpotify, u, "response body", err)
	}
	return nil
}

// Album scrapes a Spotify album.
type Album struct {
	api    api
	images *downloader.ImageDownloader
	logger zerolog.Logger
}

// NewAlbum creates the album adapter.
func NewAlbum(env sites.Env, apiBase string, tokens sites.TokenProvider) *Album {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Album{
		api:    api{dl: env.Scrape, base: apiBase, tokens: tokens},
		images: env.Images(catalog.SiteSpotify, nil),
		logger: env.Logger.With().Str("component", "spotify").Logger(),
	}
}

// Info implements sites.Adapter.
func (a *Album) Info() sites.Info {
	return sites.Info{
		Site:        catalog.SiteSpotify,
		IDType:      catalog.IDTypeSpotifyAlbum,
		Model:       catalog.ModelAlbum,
		Category:    catalog.CategoryMusic,
		URLPatterns: []string{`https://open\.spotify\.com/album/([a-zA-Z0-9]+)`},
		SampleIDs:   []string{"65KwtzkJXw7oT819NFWmEP"},
	}
}

// IDToURL implements sites.Adapter.
func (a *Album) IDToURL(id string) string {
	return albumURL + id
}

// Scrape implements sites.Adapter.
func (a *Album) Scrape(ctx context.Context, id string) (*catalog.ResourceContent, error) {
	var res albumResponse
	if err := a.api.get(ctx, "/albums/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, err
	}
	if res.Name == "" {
		return nil, catalog.NewParseError(catalog.SiteSpotify, a.IDToURL(id), "album name")
	}

	md := catalog.Metadata{
		Title:          res.Name,
		LocalizedTitle: []catalog.LocalizedText{{Lang: "en", Text: res.Name}},
		Artists:        artistNames(res.Artists),
		Genres:         res.Genres,
		PubHouse:       res.Label,
		ReleaseDate:    res.ReleaseDate,
		CoverImageURL:  largest(res.Images),
	}
	tracks := make([]string, 0, len(res.Tracks.Items))
	for _, t := range res.Tracks.Items {
		tracks = append(tracks, t.Name)
	}
	md.TrackList = strings.Join(tracks, "\n")

	rc := catalog.NewResourceContent(md)
	gtin := res.ExternalIDs.UPC
	if gtin == "" {
		gtin = res.ExternalIDs.EAN
	}
	rc.SetLookupID(catalog.IDTypeGTIN, gtin)
	rc.CoverImage, rc.CoverImageExt = sites.FetchCover(ctx, a.images, a.logger, md.CoverImageURL, nil)
	return rc, nil
}

func artistNames(as []artist) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.Name)
	}
	return out
}

func largest(images []image) string {
	best := -1
	for i, im := range images {
		if best < 0 || im.Width*im.Height > images[best].Width*images[best].Height {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return images[best].URL
}
