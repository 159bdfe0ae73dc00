// Package downloader fetches remote content for site adapters. Every variant
// reports transport and HTTP status failures as catalog fetch errors and
// never returns an empty body in place of an error.
package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/metrics"
)

const (
	// DefaultTimeout bounds one primary-content download.
	DefaultTimeout = 90 * time.Second

	// DefaultMaxBodyBytes caps a response body.
	DefaultMaxBodyBytes = 32 << 20
)

// ErrBodyTooLarge is the cause of a fetch error for a body over the limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Request describes one fetch.
type Request struct {
	URL     string
	Method  string // defaults to GET
	Body    []byte
	Headers http.Header
	Cookies []*http.Cookie

	// NoCache bypasses the response cache for this request.
	NoCache bool
}

// Response is a fully read HTTP response.
type Response struct {
	URL        string // final URL after redirects
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the media type without parameters, lowercased.
func (r *Response) ContentType() string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	}
	return mt
}

// HTML parses the body as an HTML document.
func (r *Response) HTML() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Downloader fetches one request.
type Downloader interface {
	Download(ctx context.Context, req Request) (*Response, error)
}

// ValidateFunc inspects, and may patch, a response before it is returned.
// Returning an error fails the download with that error.
type ValidateFunc func(*Response) error

// StatusError is the cause of a fetch error for a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Options configures a Basic downloader.
type Options struct {
	Site      catalog.SiteName
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	Languages []string
	Validate  ValidateFunc
	Limiter   *HostLimiter
	Cache     Cache
	CacheTTL  time.Duration
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger

	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Basic performs a single attempt.
type Basic struct {
	site           catalog.SiteName
	client         *http.Client
	timeout        time.Duration
	userAgent      string
	acceptLanguage string
	validate       ValidateFunc
	limiter        *HostLimiter
	cache          Cache
	cacheTTL       time.Duration
	metrics        *metrics.Metrics
	maxBody        int64
	logger         zerolog.Logger
}

// New creates a Basic downloader.
func New(opts Options) *Basic {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Basic{
		site:           opts.Site,
		client:         client,
		timeout:        timeout,
		userAgent:      opts.UserAgent,
		acceptLanguage: AcceptLanguage(opts.Languages),
		validate:       opts.Validate,
		limiter:        opts.Limiter,
		cache:          opts.Cache,
		cacheTTL:       opts.CacheTTL,
		metrics:        opts.Metrics,
		maxBody:        maxBody,
		logger:         opts.Logger.With().Str("component", "downloader").Logger(),
	}
}

// WithValidate returns a copy using fn as the response validator.
func (d *Basic) WithValidate(fn ValidateFunc) *Basic {
	c := *d
	c.validate = fn
	return &c
}

// Download implements Downloader.
func (d *Basic) Download(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	cacheable := d.cache != nil && method == http.MethodGet && !req.NoCache

	if cacheable {
		if resp, ok := d.cache.Get(ctx, req.URL); ok {
			d.metrics.ObserveDownload(metrics.OutcomeCached)
			return resp, nil
		}
	}

	resp, err := d.fetch(ctx, method, req)
	if err != nil {
		d.metrics.ObserveDownload(metrics.OutcomeError)
		d.logger.Debug().Err(err).Str("url", req.URL).Msg("Download failed")
		return nil, err
	}

	if d.validate != nil {
		if err := d.validate(resp); err != nil {
			d.metrics.ObserveDownload(metrics.OutcomeError)
			return nil, err
		}
	}

	if cacheable {
		d.cache.Set(ctx, req.URL, resp, d.cacheTTL)
	}
	d.metrics.ObserveDownload(metrics.OutcomeSuccess)
	return resp, nil
}

func (d *Basic) fetch(ctx context.Context, method string, req Request) (*Response, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, req.URL); err != nil {
			return nil, catalog.NewFetchError(d.site, req.URL, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, catalog.NewFetchError(d.site, req.URL, err)
	}

	if d.userAgent != "" {
		httpReq.Header.Set("User-Agent", d.userAgent)
	}
	if d.acceptLanguage != "" {
		httpReq.Header.Set("Accept-Language", d.acceptLanguage)
	}
	for k, vs := range req.Headers {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for _, c := range req.Cookies {
		httpReq.AddCookie(c)
	}

	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, catalog.NewFetchError(d.site, req.URL, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, 64<<10))
		return nil, catalog.NewFetchError(d.site, req.URL, &StatusError{StatusCode: httpResp.StatusCode})
	}

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, d.maxBody+1))
	if err != nil {
		return nil, catalog.NewFetchError(d.site, req.URL, fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > d.maxBody {
		return nil, catalog.NewFetchError(d.site, req.URL, fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, d.maxBody))
	}

	return &Response{
		URL:        httpResp.Request.URL.String(),
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}
