// Package federation supplies peer instances and searches them.
package federation

import (
	"context"
	"net/url"
	"strings"
)

// Directory supplies the hostnames of federated peers.
type Directory interface {
	Peers(ctx context.Context) ([]string, error)
}

// StaticDirectory is a fixed peer list.
type StaticDirectory []string

// NewStaticDirectory normalizes hosts into a directory.
func NewStaticDirectory(hosts []string) StaticDirectory {
	return StaticDirectory(NormalizeHosts(hosts))
}

// Peers implements Directory.
func (d StaticDirectory) Peers(context.Context) ([]string, error) {
	out := make([]string, len(d))
	copy(out, d)
	return out, nil
}

// NormalizeHosts lowercases hosts, strips any scheme or path, and drops
// empty and duplicate entries while keeping order.
func NormalizeHosts(hosts []string) []string {
	seen := make(map[string]bool, len(hosts))
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = normalizeHost(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func normalizeHost(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	if h == "" {
		return ""
	}
	if strings.Contains(h, "://") {
		if u, err := url.Parse(h); err == nil {
			return u.Host
		}
		return ""
	}
	h, _, _ = strings.Cut(h, "/")
	return h
}
