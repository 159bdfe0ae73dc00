package downloader

import (
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
)

// ProxyRotator hands out upstream proxies round-robin.
type ProxyRotator struct {
	proxies []*url.URL
	next    atomic.Uint64
}

// NewProxyRotator parses the proxy list. An empty list is an error.
func NewProxyRotator(raw []string) (*ProxyRotator, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no proxies configured")
	}
	r := &ProxyRotator{}
	for _, p := range raw {
		u, err := url.Parse(p)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", p)
		}
		r.proxies = append(r.proxies, u)
	}
	return r, nil
}

// Proxy satisfies http.Transport.Proxy.
func (r *ProxyRotator) Proxy(*http.Request) (*url.URL, error) {
	n := r.next.Add(1) - 1
	return r.proxies[n%uint64(len(r.proxies))], nil
}

// NewProxy builds a retrying downloader whose requests leave through the
// rotating proxy list, so each retry goes out through a different upstream.
// With no proxies it degrades to a plain retrying downloader.
func NewProxy(opts Options, proxies []string, attempts int) (*Retry, error) {
	if len(proxies) == 0 {
		return NewRetry(New(opts), attempts), nil
	}
	rot, err := NewProxyRotator(proxies)
	if err != nil {
		return nil, err
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.Proxy = rot.Proxy
	client := &http.Client{Transport: base}
	if opts.Client != nil {
		client.CheckRedirect = opts.Client.CheckRedirect
		client.Jar = opts.Client.Jar
	}
	opts.Client = client

	return NewRetry(New(opts), attempts), nil
}
