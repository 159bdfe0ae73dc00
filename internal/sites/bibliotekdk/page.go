// Package bibliotekdk scrapes works and editions from bibliotek.dk and
// searches its FBI GraphQL API.
package bibliotekdk

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

const (
	materialBase = "https://bibliotek.dk/materiale/title/"
	language     = "da"
	userAgent    = "curl/8.7.1"
	coverOrigin  = "moreinfo"
)

var (
	editionPattern = `https://bibliotek\.dk/materiale/[^/?#]+/(work-of:[^/?#]+/[^/?#]+)`
	workPattern    = `https://bibliotek\.dk/materiale/[^/?#]+/(work-of:[^/?#]+)`

	queryKeyRe = regexp.MustCompile(`query (\w+)`)
	digitsRe   = regexp.MustCompile(`\d{4}`)
)

type nextData struct {
	Props struct {
		PageProps struct {
			InitialData map[string]json.RawMessage `json:"initialData"`
		} `json:"pageProps"`
	} `json:"props"`
}

type workEnvelope struct {
	Data struct {
		Work *work `json:"work"`
	} `json:"data"`
}

type work struct {
	WorkID string `json:"workId"`
	Titles struct {
		Full []string `json:"full"`
	} `json:"titles"`
	Abstract       []string  `json:"abstract"`
	Creators       []creator `json:"creators"`
	Manifestations struct {
		All []manifestation `json:"all"`
	} `json:"manifestations"`
}

type creator struct {
	Display string `json:"display"`
}

type manifestation struct {
	PID     string `json:"pid"`
	Edition struct {
		PublicationYear struct {
			Display string `json:"display"`
		} `json:"publicationYear"`
	} `json:"edition"`
	Creators    []creator `json:"creators"`
	Publisher   []string  `json:"publisher"`
	Identifiers []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"identifiers"`
	Cover struct {
		Detail string `json:"detail"`
		Origin string `json:"origin"`
	} `json:"cover"`
}

func (m *manifestation) isbn() string {
	for _, id := range m.Identifiers {
		if id.Type == "ISBN" {
			if v := catalog.CleanISBN(id.Value); v != "" {
				return v
			}
		}
	}
	return ""
}

// fetchWork downloads a material page and decodes the work embedded in it.
func fetchWork(ctx context.Context, dl downloader.Downloader, pageURL string) (*work, error) {
	resp, err := dl.Download(ctx, downloader.Request{
		URL:     pageURL,
		Headers: map[string][]string{"User-Agent": {userAgent}},
	})
	if err != nil {
		return nil, err
	}
	src, err := sites.NextData(catalog.SiteBibliotekDK, resp)
	if err != nil {
		return nil, err
	}

	var nd nextData
	if err := json.Unmarshal(src, &nd); err != nil {
		return nil, catalog.WrapParseError(catalog.SiteBibliotekDK, pageURL, "__NEXT_DATA__ json", err)
	}

	// Query results are keyed by the full query text; "query workJsonLd(...)"
	// becomes "workJsonLd".
	data := make(map[string]json.RawMessage, len(nd.Props.PageProps.InitialData))
	for k, v := range nd.Props.PageProps.InitialData {
		if m := queryKeyRe.FindStringSubmatch(k); m != nil {
			k = m[1]
		}
		data[k] = v
	}

	raw, ok := data["workJsonLd"]
	if !ok {
		return nil, catalog.NewParseError(catalog.SiteBibliotekDK, pageURL, "workJsonLd")
	}
	var env workEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, catalog.WrapParseError(catalog.SiteBibliotekDK, pageURL, "workJsonLd", err)
	}
	w := env.Data.Work
	if w == nil || len(w.Titles.Full) == 0 {
		return nil, catalog.NewParseError(catalog.SiteBibliotekDK, pageURL, "work title")
	}
	if len(w.Manifestations.All) == 0 {
		return nil, catalog.NewParseError(catalog.SiteBibliotekDK, pageURL, "manifestations")
	}
	return w, nil
}

// coverURL prefers the higher resolution moreinfo covers over whatever the
// given manifestation carries.
func (w *work) coverURL(m *manifestation) string {
	if m != nil && m.Cover.Origin == coverOrigin {
		return m.Cover.Detail
	}
	for i := range w.Manifestations.All {
		if c := w.Manifestations.All[i].Cover; c.Origin == coverOrigin && c.Detail != "" {
			return c.Detail
		}
	}
	if m != nil {
		return m.Cover.Detail
	}
	return w.Manifestations.All[0].Cover.Detail
}

func (w *work) title() string {
	return w.Titles.Full[0]
}

func (w *work) description() string {
	if len(w.Abstract) == 0 {
		return ""
	}
	return w.Abstract[0]
}

func (w *work) manifestation(pid string) *manifestation {
	for i := range w.Manifestations.All {
		if w.Manifestations.All[i].PID == pid {
			return &w.Manifestations.All[i]
		}
	}
	return nil
}

// extractEdition maps one manifestation of an already decoded work onto
// edition content. It performs no I/O so the work adapter can reuse it for
// every manifestation of the page it fetched.
func extractEdition(w *work, m *manifestation) *catalog.ResourceContent {
	title := w.title()
	md := catalog.Metadata{
		Title:          title,
		LocalizedTitle: []catalog.LocalizedText{{Lang: language, Text: title}},
		Language:       language,
		PubYear:        parseYear(m.Edition.PublicationYear.Display),
		ISBN:           m.isbn(),
		CoverImageURL:  w.coverURL(m),
	}
	for _, c := range m.Creators {
		md.Authors = append(md.Authors, c.Display)
	}
	if len(m.Publisher) > 0 {
		md.PubHouse = m.Publisher[0]
	}
	if d := w.description(); d != "" {
		md.LocalizedDescription = []catalog.LocalizedText{{Lang: language, Text: d}}
		md.Brief = d
	}

	rc := catalog.NewResourceContent(md)
	rc.SetLookupID(catalog.IDTypeISBN, md.ISBN)
	return rc
}

func parseYear(s string) int {
	y, err := strconv.Atoi(digitsRe.FindString(s))
	if err != nil {
		return 0
	}
	return y
}
