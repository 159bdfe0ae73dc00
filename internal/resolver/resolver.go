// Package resolver turns URLs and ids into scraped resource content,
// following declared dependencies.
package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/sites"
)

// DefaultMaxDepth limits how many levels of required resources ResolveTree
// follows below the root.
const DefaultMaxDepth = 2

// Resolved is one scraped resource.
type Resolved struct {
	Site    catalog.SiteName         `json:"site"`
	IDType  catalog.IDType           `json:"id_type"`
	IDValue string                   `json:"id_value"`
	URL     string                   `json:"url"`
	Model   catalog.ModelKind        `json:"model"`
	Content *catalog.ResourceContent `json:"content"`
	// CoverPath is set when the cover was written to disk.
	CoverPath string `json:"cover_path,omitempty"`
}

// Node is a resolved resource with its resolved dependencies.
type Node struct {
	*Resolved
	Required []*Node `json:"required,omitempty"`
	// Error is set on a dependency that failed to resolve.
	Error string `json:"error,omitempty"`
}

// Options configures a Resolver.
type Options struct {
	MaxDepth int
	// CoverDir enables writing cover images under {CoverDir}/{idType}/.
	CoverDir string
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// Resolver resolves resources through a registry.
type Resolver struct {
	reg      *sites.Registry
	maxDepth int
	coverDir string
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New creates a resolver.
func New(reg *sites.Registry, opts Options) *Resolver {
	depth := opts.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	return &Resolver{
		reg:      reg,
		maxDepth: depth,
		coverDir: opts.CoverDir,
		metrics:  opts.Metrics,
		logger:   opts.Logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve scrapes the resource url points at. Errors come back unchanged
// so callers can branch on their kind.
func (r *Resolver) Resolve(ctx context.Context, url string) (*Resolved, error) {
	site, err := r.reg.SiteByURL(url)
	if err != nil {
		return nil, err
	}
	return r.scrape(ctx, site)
}

// ResolveByID scrapes a resource by id without matching a URL.
func (r *Resolver) ResolveByID(ctx context.Context, idType catalog.IDType, id string) (*Resolved, error) {
	site, err := r.reg.SiteByID(idType, id)
	if err != nil {
		return nil, err
	}
	return r.scrape(ctx, site)
}

// ResolveTree resolves url and then its required resources, breadth
// first up to the configured depth. A resource is visited once per tree,
// so dependency declarations cannot cycle. A failing dependency is
// recorded on its node and does not fail the tree.
func (r *Resolver) ResolveTree(ctx context.Context, url string) (*Node, error) {
	root, err := r.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}

	visited := map[key]bool{{root.IDType, root.IDValue}: true}
	rootNode := &Node{Resolved: root}
	level := []*Node{rootNode}

	for depth := 0; depth < r.maxDepth && len(level) > 0; depth++ {
		var next []*Node
		for _, n := range level {
			for _, link := range n.Content.RequiredResources {
				k := key{link.IDType, link.IDValue}
				if link.IDValue != "" && visited[k] {
					continue
				}
				child := r.resolveLink(ctx, link)
				if child.Resolved != nil {
					k = key{child.IDType, child.IDValue}
					if visited[k] {
						continue
					}
				}
				visited[k] = true
				n.Required = append(n.Required, child)
				if child.Error == "" {
					next = append(next, child)
				}
			}
		}
		level = next
	}
	return rootNode, nil
}

type key struct {
	idType catalog.IDType
	id     string
}

// resolveLink resolves one declared dependency. Attached content is used
// as is, then the adapter's bypass, and only then a scrape.
func (r *Resolver) resolveLink(ctx context.Context, link catalog.RequiredResource) *Node {
	site, err := r.siteForLink(link)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("id_type", string(link.IDType)).
			Str("id_value", link.IDValue).
			Msg("Cannot resolve required resource")
		return &Node{Resolved: linkOnly(link), Error: err.Error()}
	}

	if link.Content != nil {
		return &Node{Resolved: r.resolved(site, link.Content)}
	}
	if b, ok := site.Adapter.(sites.LinkBypasser); ok {
		if rc, ok := b.BypassScrape(link); ok {
			r.metrics.ObserveScrape(string(site.Info().Site), metrics.OutcomeSkipped)
			return &Node{Resolved: r.resolved(site, rc)}
		}
	}

	res, err := r.scrape(ctx, site)
	if err != nil {
		return &Node{Resolved: r.resolved(site, nil), Error: err.Error()}
	}
	return &Node{Resolved: res}
}

func (r *Resolver) siteForLink(link catalog.RequiredResource) (*sites.Site, error) {
	if link.IDValue != "" {
		return r.reg.SiteByID(link.IDType, link.IDValue)
	}
	if link.URL != "" {
		return r.reg.SiteByURL(link.URL)
	}
	return nil, catalog.NewUnsupportedIDType(link.IDType)
}

func (r *Resolver) scrape(ctx context.Context, site *sites.Site) (*Resolved, error) {
	info := site.Info()
	start := time.Now()

	rc, err := site.Scrape(ctx)
	if err != nil {
		r.metrics.ObserveScrape(string(info.Site), metrics.OutcomeError)
		r.logger.Warn().Err(err).
			Str("site", string(info.Site)).
			Str("url", site.URL).
			Str("kind", string(catalog.KindOf(err))).
			Msg("Scrape failed")
		return nil, err
	}
	r.metrics.ObserveScrape(string(info.Site), metrics.OutcomeSuccess)
	r.logger.Debug().
		Str("site", string(info.Site)).
		Str("url", site.URL).
		Dur("elapsed", time.Since(start)).
		Msg("Scraped resource")

	res := r.resolved(site, rc)
	if path, err := r.saveCover(res); err != nil {
		r.logger.Warn().Err(err).Str("url", site.URL).Msg("Failed to store cover")
	} else {
		res.CoverPath = path
	}
	return res, nil
}

func (r *Resolver) resolved(site *sites.Site, rc *catalog.ResourceContent) *Resolved {
	info := site.Info()
	return &Resolved{
		Site:    info.Site,
		IDType:  info.IDType,
		IDValue: site.IDValue,
		URL:     site.URL,
		Model:   info.Model,
		Content: rc,
	}
}

func (r *Resolver) saveCover(res *Resolved) (string, error) {
	if r.coverDir == "" || res.Content == nil || len(res.Content.CoverImage) == 0 {
		return "", nil
	}
	path := downloader.CoverPath(r.coverDir, downloader.CoverRef{IDType: res.IDType, IDValue: res.IDValue}, res.Content.CoverImageExt)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create cover dir: %w", err)
	}
	if err := os.WriteFile(path, res.Content.CoverImage, 0o644); err != nil {
		return "", fmt.Errorf("write cover: %w", err)
	}
	return path, nil
}

func linkOnly(link catalog.RequiredResource) *Resolved {
	return &Resolved{
		IDType:  link.IDType,
		IDValue: link.IDValue,
		URL:     link.URL,
		Model:   link.Model,
	}
}
