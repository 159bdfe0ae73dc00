package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/folio/folio/internal/catalog"
	"github.com/folio/folio/internal/search"
)

// SearchResponse wraps search results.
type SearchResponse struct {
	Data []catalog.SearchResultItem `json:"data"`
}

// searchCatalog runs a federated search.
// GET /api/v1/catalog/search?query=&category=&page=
func (s *Server) searchCatalog(c echo.Context) error {
	if s.deps.Search == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	category, ok := search.ParseCategory(c.QueryParam("category"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown category")
	}

	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "page must be a positive integer")
		}
		page = p
	}

	items := s.deps.Search.Search(c.Request().Context(), category, c.QueryParam("query"), page)
	return c.JSON(http.StatusOK, SearchResponse{Data: items})
}

// resolveURL scrapes the resource a URL points at. With tree=true its
// required resources are resolved too.
// GET /api/v1/catalog/resolve?url=
func (s *Server) resolveURL(c echo.Context) error {
	if s.deps.Resolver == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "resolver is not configured")
	}
	u := c.QueryParam("url")
	if u == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}

	ctx := c.Request().Context()
	if tree, _ := strconv.ParseBool(c.QueryParam("tree")); tree {
		node, err := s.deps.Resolver.ResolveTree(ctx, u)
		if err != nil {
			return catalogError(err)
		}
		return c.JSON(http.StatusOK, node)
	}

	res, err := s.deps.Resolver.Resolve(ctx, u)
	if err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// lookupID scrapes a resource by identifier.
// GET /api/v1/catalog/lookup/:idType/:id
func (s *Server) lookupID(c echo.Context) error {
	if s.deps.Resolver == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "resolver is not configured")
	}
	res, err := s.deps.Resolver.ResolveByID(c.Request().Context(), catalog.IDType(c.Param("idType")), c.Param("id"))
	if err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// listSites lists registered adapters.
// GET /api/v1/sites
func (s *Server) listSites(c echo.Context) error {
	if s.deps.Registry == nil {
		return c.JSON(http.StatusOK, []any{})
	}
	return c.JSON(http.StatusOK, s.deps.Registry.Describe())
}

// catalogError maps catalog error kinds onto HTTP statuses.
func catalogError(err error) error {
	var cerr *catalog.Error
	if !errors.As(err, &cerr) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}

	status := http.StatusInternalServerError
	switch cerr.Kind {
	case catalog.KindNoMatchingSite:
		status = http.StatusNotFound
	case catalog.KindUnsupportedIDType:
		status = http.StatusBadRequest
	case catalog.KindFetch:
		status = http.StatusBadGateway
	case catalog.KindParse:
		status = http.StatusUnprocessableEntity
	}
	return echo.NewHTTPError(status, map[string]string{
		"kind":    string(cerr.Kind),
		"message": cerr.Error(),
	}).SetInternal(err)
}
