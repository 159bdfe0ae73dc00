package downloader

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// AcceptLanguage builds an Accept-Language value from languages in
// preference order, with descending quality weights. Unparseable entries
// are skipped.
func AcceptLanguage(langs []string) string {
	parts := make([]string, 0, len(langs))
	seen := make(map[string]bool, len(langs))
	for _, l := range langs {
		tag, err := language.Parse(strings.TrimSpace(l))
		if err != nil {
			continue
		}
		s := tag.String()
		if seen[s] {
			continue
		}
		seen[s] = true

		if len(parts) == 0 {
			parts = append(parts, s)
			continue
		}
		q := 1.0 - 0.1*float64(len(parts))
		if q < 0.1 {
			q = 0.1
		}
		parts = append(parts, fmt.Sprintf("%s;q=%.1f", s, q))
	}
	return strings.Join(parts, ",")
}
