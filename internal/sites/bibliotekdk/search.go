package bibliotekdk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/downloader"
	"github.com/folio/folio/internal/sites"
)

// DefaultGraphQLURL is the FBI API endpoint used for search.
const DefaultGraphQLURL = "https://fbi-api.dbc.dk/SimpleSearch/graphql"

const searchQuery = `query ($q: SearchQueryInput!, $filters: SearchFiltersInput, $offset: Int!, $limit: PaginationLimitScalar!) {
  search(q: $q, filters: $filters) {
    works(offset: $offset, limit: $limit) {
      workId
      titles { full }
      creators { display }
      abstract
      manifestations { mostRelevant { cover { detail } } }
    }
  }
}`

// Searcher queries the FBI GraphQL API for literature.
type Searcher struct {
	dl       downloader.Downloader
	endpoint string
	token    sites.TokenProvider
}

// NewSearcher creates a searcher. An empty endpoint uses DefaultGraphQLURL.
func NewSearcher(env sites.Env, endpoint string, token sites.TokenProvider) *Searcher {
	if endpoint == "" {
		endpoint = DefaultGraphQLURL
	}
	return &Searcher{dl: env.Search, endpoint: endpoint, token: token}
}

// Name implements sites.Searcher.
func (s *Searcher) Name() catalog.SiteName {
	return catalog.SiteBibliotekDK
}

type searchResponse struct {
	Data struct {
		Search struct {
			Works []struct {
				WorkID string `json:"workId"`
				Titles struct {
					Full []string `json:"full"`
				} `json:"titles"`
				Creators       []creator `json:"creators"`
				Abstract       []string  `json:"abstract"`
				Manifestations struct {
					MostRelevant []struct {
						Cover struct {
							Detail string `json:"detail"`
						} `json:"cover"`
					} `json:"mostRelevant"`
				} `json:"manifestations"`
			} `json:"works"`
		} `json:"search"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Search implements sites.Searcher.
func (s *Searcher) Search(ctx context.Context, query string, page int) ([]catalog.SearchResultItem, error) {
	token, err := s.token.Token(ctx)
	if err != nil {
		return nil, catalog.NewFetchError(catalog.SiteBibliotekDK, s.endpoint, err)
	}

	body, err := json.Marshal(map[string]any{
		"query": searchQuery,
		"variables": map[string]any{
			"filters": map[string]any{"workTypes": []string{"literature"}},
			"limit":   sites.SearchPageSize,
			"offset":  sites.Offset(page),
			"q":       map[string]string{"all": query},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	resp, err := s.dl.Download(ctx, downloader.Request{
		URL:    s.endpoint,
		Method: "POST",
		Body:   body,
		Headers: map[string][]string{
			"Content-Type":  {"application/json"},
			"Authorization": {"Bearer " + token},
		},
	})
	if err != nil {
		return nil, err
	}

	var sr searchResponse
	if err := resp.JSON(&sr); err != nil {
		return nil, catalog.WrapParseError(catalog.SiteBibliotekDK, s.endpoint, "search response", err)
	}
	if len(sr.Errors) > 0 {
		return nil, catalog.WrapParseError(catalog.SiteBibliotekDK, s.endpoint, "search response",
			fmt.Errorf("graphql: %s", sr.Errors[0].Message))
	}

	var items []catalog.SearchResultItem
	for _, w := range sr.Data.Search.Works {
		if w.WorkID == "" || len(w.Titles.Full) == 0 {
			continue
		}
		item := catalog.SearchResultItem{
			Category:     catalog.CategoryBook,
			SourceSite:   catalog.SiteBibliotekDK,
			SourceURL:    materialBase + w.WorkID,
			DisplayTitle: w.Titles.Full[0],
		}
		names := make([]string, 0, len(w.Creators))
		for _, c := range w.Creators {
			names = append(names, c.Display)
		}
		item.Subtitle = strings.Join(names, ", ")
		if len(w.Abstract) > 0 {
			item.Brief = w.Abstract[0]
		}
		if mr := w.Manifestations.MostRelevant; len(mr) > 0 {
			item.CoverImageURL = mr[0].Cover.Detail
		}
		items = append(items, item)
	}
	return items, nil
}
