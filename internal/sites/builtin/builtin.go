// Package builtin lists the adapters and searchers compiled into folio.
package builtin

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/sites"
	"github.com/folio/folio/internal/sites/bandcamp"
	"github.com/folio/folio/internal/sites/bibliotekdk"
	"github.com/folio/folio/internal/sites/douban"
	"github.com/folio/folio/internal/sites/goodreads"
	"github.com/folio/folio/internal/sites/googlebooks"
	"github.com/folio/folio/internal/sites/rss"
	"github.com/folio/folio/internal/sites/spotify"
	"github.com/folio/folio/internal/sites/tmdb"
)

// EnvOptions configures the shared downloaders.
type EnvOptions struct {
	Downloader config.DownloaderConfig
	Languages  []string
	Cache      downloader.Cache
	Metrics    *metrics.Metrics
	Client     *http.Client
	Logger     zerolog.Logger
}

// NewEnv builds the downloaders every adapter shares: a retrying scrape
// downloader, a single-attempt search downloader with the short search
// timeout, and a proxy downloader when proxies are configured.
func NewEnv(opts EnvOptions) (sites.Env, error) {
	dc := opts.Downloader
	limiter := downloader.NewHostLimiter(dc.RatePerSecond, 1)

	base := downloader.Options{
		Client:    opts.Client,
		Timeout:   dc.RequestTimeout,
		UserAgent: dc.UserAgent,
		Languages: opts.Languages,
		Limiter:   limiter,
		Cache:     opts.Cache,
		CacheTTL:  dc.CacheTTL,
		Metrics:   opts.Metrics,
		Logger:    opts.Logger,
	}
	search := base
	search.Timeout = dc.SearchTimeout

	retries := dc.Retries
	if retries <= 0 {
		retries = downloader.DefaultRetries
	}

	env := sites.Env{
		Scrape:       downloader.NewRetry(downloader.New(base), retries),
		Search:       downloader.New(search),
		ImageBase:    downloader.New(base),
		ImageRetries: retries,
		Logger:       opts.Logger,
	}
	if len(dc.Proxies) > 0 {
		proxy, err := downloader.NewProxy(base, dc.Proxies, retries)
		if err != nil {
			return sites.Env{}, fmt.Errorf("failed to configure proxies: %w", err)
		}
		env.Proxy = proxy
	}
	return env, nil
}

// Adapters returns every adapter in registration order. More specific
// patterns come first and the catch-all feed adapter comes last.
func Adapters(env sites.Env, cfg config.SitesConfig, client *http.Client) []sites.Adapter {
	tokens := spotifyTokens(cfg, client)
	return []sites.Adapter{
		bibliotekdk.NewEdition(env),
		bibliotekdk.NewWork(env),
		goodreads.NewBook(env),
		goodreads.NewWork(env),
		googlebooks.NewVolume(env, cfg.GoogleBooks.BaseURL, cfg.GoogleBooks.APIKey),
		douban.NewBook(env),
		douban.NewWork(env),
		tmdb.NewMovie(env, tmdbConfig(cfg)),
		tmdb.NewTV(env, tmdbConfig(cfg)),
		spotify.NewAlbum(env, cfg.Spotify.BaseURL, tokens),
		bandcamp.NewAlbum(env),
		rss.NewPodcast(env),
	}
}

// NewRegistry registers Adapters and validates the result. Overlapping
// patterns are logged, or returned as an error when strict_patterns is set.
func NewRegistry(env sites.Env, cfg config.SitesConfig, client *http.Client, logger zerolog.Logger) (*sites.Registry, error) {
	b := sites.NewBuilder()
	for _, a := range Adapters(env, cfg, client) {
		if err := b.Register(a); err != nil {
			return nil, err
		}
	}
	reg := b.Build()

	if err := reg.Validate(); err != nil {
		if cfg.StrictPatterns {
			return nil, fmt.Errorf("site patterns overlap: %w", err)
		}
		logger.Warn().Err(err).Msg("Site patterns overlap, earlier registrations win")
	}
	return reg, nil
}

// Searchers returns the searchers that can run with the given
// configuration, keyed by name. Sources needing credentials that are not
// configured are left out.
func Searchers(env sites.Env, cfg config.SitesConfig, client *http.Client) map[catalog.SiteName]sites.Searcher {
	out := map[catalog.SiteName]sites.Searcher{
		catalog.SiteGoogleBooks:  googlebooks.NewSearcher(env, cfg.GoogleBooks.BaseURL, cfg.GoogleBooks.APIKey),
		catalog.SiteGoodreads:    goodreads.NewSearcher(env),
		catalog.SiteBandcamp:     bandcamp.NewSearcher(env),
		catalog.SiteApplePodcast: rss.NewApplePodcasts(env, ""),
	}
	if cfg.TMDB.APIKey != "" {
		out[catalog.SiteTMDB] = tmdb.NewSearcher(env, tmdbConfig(cfg))
	}
	if cfg.BibliotekDK.Token != "" {
		out[catalog.SiteBibliotekDK] = bibliotekdk.NewSearcher(env, cfg.BibliotekDK.GraphQLURL, sites.StaticToken(cfg.BibliotekDK.Token))
	}
	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		out[catalog.SiteSpotify] = spotify.NewSearcher(env, cfg.Spotify.BaseURL, spotifyTokens(cfg, client))
	}
	return out
}

func tmdbConfig(cfg config.SitesConfig) tmdb.Config {
	return tmdb.Config{
		APIKey:   cfg.TMDB.APIKey,
		BaseURL:  cfg.TMDB.BaseURL,
		Language: cfg.TMDB.Language,
	}
}

func spotifyTokens(cfg config.SitesConfig, client *http.Client) sites.TokenProvider {
	return spotify.NewClientCredentials(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.TokenURL, client)
}
