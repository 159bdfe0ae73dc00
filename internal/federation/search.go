package federation

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
)

// DefaultTimeout bounds each peer request.
const DefaultTimeout = 2 * time.Second

// peerItem is one entry of a peer's catalog search response.
type peerItem struct {
	URL               string `json:"url"`
	DisplayTitle      string `json:"display_title"`
	Brief             string `json:"brief"`
	CoverImageURL     string `json:"cover_image_url"`
	Category          string `json:"category"`
	ExternalResources []struct {
		URL string `json:"url"`
	} `json:"external_resources"`
}

type peerResponse struct {
	Data []peerItem `json:"data"`
}

// Options configures a Searcher.
type Options struct {
	// OwnDomains are this instance's hostnames. Peer items pointing at
	// them are dropped.
	OwnDomains []string
	Timeout    time.Duration
	Logger     zerolog.Logger
}

// Searcher queries every peer in a directory concurrently.
type Searcher struct {
	dl      downloader.Downloader
	dir     Directory
	own     map[string]bool
	timeout time.Duration
	logger  zerolog.Logger
}

// NewSearcher creates a peer searcher.
func NewSearcher(dl downloader.Downloader, dir Directory, opts Options) *Searcher {
	own := make(map[string]bool, len(opts.OwnDomains))
	for _, d := range NormalizeHosts(opts.OwnDomains) {
		own[d] = true
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Searcher{
		dl:      dl,
		dir:     dir,
		own:     own,
		timeout: timeout,
		logger:  opts.Logger.With().Str("component", "peer-search").Logger(),
	}
}

// Search asks each peer for query, filtered by category when it is not
// empty. Results keep directory order. A failing or slow peer is logged
// and contributes nothing.
func (s *Searcher) Search(ctx context.Context, query, category string) []catalog.SearchResultItem {
	peers, err := s.dir.Peers(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list peers")
		return nil
	}
	if len(peers) == 0 {
		return nil
	}

	slots := make([][]catalog.SearchResultItem, len(peers))
	var g errgroup.Group
	for i, host := range peers {
		g.Go(func() error {
			slots[i] = s.searchPeer(ctx, host, query, category)
			return nil
		})
	}
	_ = g.Wait()

	var out []catalog.SearchResultItem
	for _, items := range slots {
		out = append(out, items...)
	}
	return out
}

func (s *Searcher) searchPeer(ctx context.Context, host, query, category string) []catalog.SearchResultItem {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("query", query)
	if category != "" {
		params.Set("category", category)
	}
	u := "https://" + host + "/api/catalog/search?" + params.Encode()

	resp, err := s.dl.Download(ctx, downloader.Request{URL: u, NoCache: true})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("source", string(catalog.SiteFediverse)).
			Str("peer", host).
			Str("query", query).
			Str("url", u).
			Str("kind", string(catalog.KindOf(err))).
			Msg("Peer search failed")
		return nil
	}

	var body peerResponse
	if err := resp.JSON(&body); err != nil {
		s.logger.Warn().Err(err).
			Str("source", string(catalog.SiteFediverse)).
			Str("peer", host).
			Str("query", query).
			Str("url", u).
			Str("kind", string(catalog.KindParse)).
			Msg("Peer search failed")
		return nil
	}

	items := make([]catalog.SearchResultItem, 0, len(body.Data))
	for _, it := range body.Data {
		if s.isEcho(it) || it.URL == "" {
			continue
		}
		cat, _ := catalog.ParseCategory(it.Category)
		items = append(items, catalog.SearchResultItem{
			Category:      cat,
			SourceSite:    catalog.SiteFediverse,
			SourceURL:     absolute(host, it.URL),
			DisplayTitle:  it.DisplayTitle,
			Subtitle:      host,
			Brief:         it.Brief,
			CoverImageURL: absolute(host, it.CoverImageURL),
		})
	}
	return items
}

// isEcho reports whether a peer item points back at this instance, either
// through its own url or one of its external resources.
func (s *Searcher) isEcho(it peerItem) bool {
	if len(s.own) == 0 {
		return false
	}
	if s.own[hostname(it.URL)] {
		return true
	}
	for _, r := range it.ExternalResources {
		if s.own[hostname(r.URL)] {
			return true
		}
	}
	return false
}

func hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func absolute(host, ref string) string {
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		return ref
	case strings.HasPrefix(ref, "/"):
		return "https://" + host + ref
	default:
		return "https://" + host + "/" + ref
	}
}
