package sites

import (
	"net/url"
	"strings"
)

var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"dclid":   true,
	"msclkid": true,
	"mc_eid":  true,
	"igshid":  true,
	"ref_src": true,
}

// NormalizeURL prepares a URL for pattern matching. It trims whitespace,
// upgrades http to https, lowercases the host, and drops the fragment and
// tracking query parameters. Unparseable input is returned trimmed.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	if u.Scheme == "http" || u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if strings.HasPrefix(strings.ToLower(k), "utm_") || trackingParams[strings.ToLower(k)] {
				q.Del(k)
			}
		}
		u.RawQuery = encodeQueryStable(u.RawQuery, q)
	}
	return u.String()
}

// encodeQueryStable re-encodes q keeping the original parameter order,
// since some source ids are read out of the query string.
func encodeQueryStable(raw string, keep url.Values) string {
	var parts []string
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			k = pair[:i]
		}
		key, err := url.QueryUnescape(k)
		if err != nil {
			key = k
		}
		if _, ok := keep[key]; ok {
			parts = append(parts, pair)
		}
	}
	return strings.Join(parts, "&")
}
