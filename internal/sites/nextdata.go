package sites

import (
	"strings"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
)

// NextData returns the JSON payload of the __NEXT_DATA__ script that
// Next.js pages embed. A page without it yields a parse error.
func NextData(site catalog.SiteName, resp *downloader.Response) ([]byte, error) {
	doc, err := resp.HTML()
	if err != nil {
		return nil, catalog.WrapParseError(site, resp.URL, "html", err)
	}
	src := strings.TrimSpace(doc.Find(`script#__NEXT_DATA__`).First().Text())
	if src == "" {
		return nil, catalog.NewParseError(site, resp.URL, "__NEXT_DATA__ element")
	}
	return []byte(src), nil
}
