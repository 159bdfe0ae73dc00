package sites

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/folio/folio/internal/catalog"
)

// Site is an adapter bound to one resource id.
type Site struct {
	Adapter Adapter
	IDValue string
	URL     string
}

// Scrape scrapes the bound resource.
func (s *Site) Scrape(ctx context.Context) (*catalog.ResourceContent, error) {
	return s.Adapter.Scrape(ctx, s.IDValue)
}

// Info returns the bound adapter's descriptor.
func (s *Site) Info() Info {
	return s.Adapter.Info()
}

type pattern struct {
	re      *regexp.Regexp
	source  string
	adapter Adapter
}

// Builder collects adapters in registration order.
type Builder struct {
	adapters []Adapter
	byType   map[catalog.IDType]Adapter
	patterns []pattern
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{byType: make(map[catalog.IDType]Adapter)}
}

// Register adds an adapter. Earlier registrations take precedence when
// patterns overlap, so more specific adapters go first. Registering the
// same id type twice or an invalid pattern is an error.
func (b *Builder) Register(a Adapter) error {
	info := a.Info()
	if info.IDType == "" {
		return fmt.Errorf("adapter for %s has no id type", info.Site)
	}
	if _, dup := b.byType[info.IDType]; dup {
		return fmt.Errorf("id type %s already registered", info.IDType)
	}

	compiled := make([]pattern, 0, len(info.URLPatterns))
	for _, p := range info.URLPatterns {
		re, err := compilePattern(p)
		if err != nil {
			return fmt.Errorf("%s pattern %q: %w", info.IDType, p, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("%s pattern %q has no id capture group", info.IDType, p)
		}
		compiled = append(compiled, pattern{re: re, source: p, adapter: a})
	}

	b.byType[info.IDType] = a
	b.adapters = append(b.adapters, a)
	b.patterns = append(b.patterns, compiled...)
	return nil
}

// MustRegister registers adapters and panics on error.
func (b *Builder) MustRegister(adapters ...Adapter) *Builder {
	for _, a := range adapters {
		if err := b.Register(a); err != nil {
			panic(err)
		}
	}
	return b
}

// Build returns the immutable registry.
func (b *Builder) Build() *Registry {
	r := &Registry{
		adapters: make([]Adapter, len(b.adapters)),
		byType:   make(map[catalog.IDType]Adapter, len(b.byType)),
		patterns: make([]pattern, len(b.patterns)),
	}
	copy(r.adapters, b.adapters)
	copy(r.patterns, b.patterns)
	for k, v := range b.byType {
		r.byType[k] = v
	}
	return r
}

// compilePattern anchors p so it must match from the start of the URL and
// may only be followed by a path, query or fragment boundary.
func compilePattern(p string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + p + `)(?:[/?#&].*)?$`)
}

// Registry resolves URLs and ids to adapters. It has no writers once built.
type Registry struct {
	adapters []Adapter
	byType   map[catalog.IDType]Adapter
	patterns []pattern
}

// SiteByURL returns the first adapter, in registration order, whose pattern
// matches the normalized URL.
func (r *Registry) SiteByURL(raw string) (*Site, error) {
	u := NormalizeURL(raw)
	for _, p := range r.patterns {
		m := p.re.FindStringSubmatch(u)
		if m == nil || m[1] == "" {
			continue
		}
		return &Site{Adapter: p.adapter, IDValue: m[1], URL: p.adapter.IDToURL(m[1])}, nil
	}
	return nil, catalog.NewNoMatchingSite(raw)
}

// SiteByID binds the adapter for idType to id without URL matching.
func (r *Registry) SiteByID(idType catalog.IDType, id string) (*Site, error) {
	a, ok := r.byType[idType]
	if !ok {
		return nil, catalog.NewUnsupportedIDType(idType)
	}
	return &Site{Adapter: a, IDValue: id, URL: a.IDToURL(id)}, nil
}

// Adapter returns the adapter registered for idType.
func (r *Registry) Adapter(idType catalog.IDType) (Adapter, bool) {
	a, ok := r.byType[idType]
	return a, ok
}

// Adapters returns adapters in registration order.
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// OverlapError reports a sample URL captured by the wrong adapter.
type OverlapError struct {
	URL     string
	Want    catalog.IDType
	Got     catalog.IDType
	Pattern string
}

func (e *OverlapError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("sample url %s for %s matches no pattern", e.URL, e.Want)
	}
	return fmt.Sprintf("sample url %s for %s is captured by %s pattern %q", e.URL, e.Want, e.Got, e.Pattern)
}

// RoundTripError reports an id that does not survive IDToURL then SiteByURL.
type RoundTripError struct {
	IDType catalog.IDType
	ID     string
	Got    string
}

func (e *RoundTripError) Error() string {
	return fmt.Sprintf("%s id %q round-trips to %q", e.IDType, e.ID, e.Got)
}

// Validate checks every adapter's sample ids: IDToURL must resolve back to
// the same adapter and id, and no earlier pattern may capture the URL.
// All problems are joined into one error.
func (r *Registry) Validate() error {
	var errs []error
	for _, a := range r.adapters {
		info := a.Info()
		for _, id := range info.SampleIDs {
			u := a.IDToURL(id)
			site, pat := r.match(u)
			switch {
			case site == nil:
				errs = append(errs, &OverlapError{URL: u, Want: info.IDType})
			case site.Adapter.Info().IDType != info.IDType:
				errs = append(errs, &OverlapError{
					URL:     u,
					Want:    info.IDType,
					Got:     site.Adapter.Info().IDType,
					Pattern: pat,
				})
			case site.IDValue != id && a.IDToURL(site.IDValue) != u:
				errs = append(errs, &RoundTripError{IDType: info.IDType, ID: id, Got: site.IDValue})
			}
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) match(u string) (*Site, string) {
	u = NormalizeURL(u)
	for _, p := range r.patterns {
		if m := p.re.FindStringSubmatch(u); m != nil && m[1] != "" {
			return &Site{Adapter: p.adapter, IDValue: m[1]}, p.source
		}
	}
	return nil, ""
}

// Describe lists adapters for display.
func (r *Registry) Describe() []Descriptor {
	out := make([]Descriptor, 0, len(r.adapters))
	for _, a := range r.adapters {
		info := a.Info()
		out = append(out, Descriptor{
			Site:     info.Site,
			IDType:   info.IDType,
			Model:    info.Model,
			Category: info.Category,
			Patterns: strings.Join(info.URLPatterns, " | "),
		})
	}
	return out
}

// Descriptor is the public view of a registered adapter.
type Descriptor struct {
	Site     catalog.SiteName     `json:"site"`
	IDType   catalog.IDType       `json:"id_type"`
	Model    catalog.ModelKind    `json:"model"`
	Category catalog.ItemCategory `json:"category,omitempty"`
	Patterns string               `json:"patterns"`
}
