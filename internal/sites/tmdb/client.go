// Package tmdb reads movies and series from The Movie Database API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
)

const (
	// DefaultBaseURL is the v3 API root.
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// ImageBaseURL prefixes poster paths.
	ImageBaseURL = "https://image.tmdb.org/t/p/w500"

	siteBaseURL = "https://www.themoviedb.org"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrNotFound      = errors.New("TMDB resource not found")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

// Config holds client settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string
}

// Client is a TMDB API client over a downloader.
type Client struct {
	dl     downloader.Downloader
	config Config
	logger zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(dl downloader.Downloader, cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		dl:     dl,
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
	}
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// SearchMulti searches movies, series and people in one call.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (*SearchMultiResponse, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", "false")

	var response SearchMultiResponse
	if err := c.doRequest(ctx, "/search/multi", params, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetMovie returns movie details with external ids and credits.
func (c *Client) GetMovie(ctx context.Context, id string) (*MovieDetails, error) {
	params := url.Values{}
	params.Set("append_to_response", "external_ids,credits")

	var details MovieDetails
	if err := c.doRequest(ctx, "/movie/"+url.PathEscape(id), params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetTV returns series details with external ids.
func (c *Client) GetTV(ctx context.Context, id string) (*TVDetails, error) {
	params := url.Values{}
	params.Set("append_to_response", "external_ids")

	var details TVDetails
	if err := c.doRequest(ctx, "/tv/"+url.PathEscape(id), params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// ImageURL returns the full poster URL for a path, or "".
func ImageURL(path *string) string {
	if path == nil || *path == "" {
		return ""
	}
	return ImageBaseURL + "/" + strings.TrimPrefix(*path, "/")
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	reqURL := c.config.BaseURL + endpoint
	if !c.IsConfigured() {
		return catalog.NewFetchError(catalog.SiteTMDB, reqURL, ErrAPIKeyMissing)
	}

	params.Set("api_key", c.config.APIKey)
	params.Set("language", c.config.Language)

	resp, err := c.dl.Download(ctx, downloader.Request{
		URL:     reqURL + "?" + params.Encode(),
		Headers: http.Header{"Accept": []string{"application/json"}},
	})
	if err != nil {
		var se *downloader.StatusError
		if errors.As(err, &se) {
			c.logger.Debug().Int("status", se.StatusCode).Str("endpoint", endpoint).Msg("TMDB API error")
			switch se.StatusCode {
			case http.StatusNotFound:
				return fmt.Errorf("%w: %w", ErrNotFound, err)
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: %w", ErrAPIKeyMissing, err)
			case http.StatusTooManyRequests:
				return fmt.Errorf("%w: %w", ErrRateLimited, err)
			}
		}
		return err
	}

	if err := resp.JSON(result); err != nil {
		return catalog.WrapParseError(catalog.SiteTMDB, reqURL, "response body", err)
	}
	return nil
}
