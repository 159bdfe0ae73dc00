package tmdb

// SearchMultiResponse is the response from TMDB multi search.
type SearchMultiResponse struct {
	Page         int           `json:"page"`
	Results      []MultiResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// MultiResult is one hit of a multi search. Movies carry Title and
// ReleaseDate, series carry Name and FirstAirDate.
type MultiResult struct {
	ID            int     `json:"id"`
	MediaType     string  `json:"media_type"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	ReleaseDate   string  `json:"release_date"`
	Name          string  `json:"name"`
	OriginalName  string  `json:"original_name"`
	FirstAirDate  string  `json:"first_air_date"`
	Overview      string  `json:"overview"`
	PosterPath    *string `json:"poster_path"`
}

// MovieDetails is the detailed movie info from TMDB.
type MovieDetails struct {
	ID               int          `json:"id"`
	Title            string       `json:"title"`
	OriginalTitle    string       `json:"original_title"`
	Overview         string       `json:"overview"`
	ReleaseDate      string       `json:"release_date"`
	PosterPath       *string      `json:"poster_path"`
	Runtime          int          `json:"runtime"`
	Homepage         string       `json:"homepage"`
	ImdbID           string       `json:"imdb_id"`
	OriginalLanguage string       `json:"original_language"`
	Genres           []Genre      `json:"genres"`
	ExternalIDs      *ExternalIDs `json:"external_ids,omitempty"`
	Credits          *Credits     `json:"credits,omitempty"`
}

// TVDetails is the detailed TV series info from TMDB.
type TVDetails struct {
	ID               int          `json:"id"`
	Name             string       `json:"name"`
	OriginalName     string       `json:"original_name"`
	Overview         string       `json:"overview"`
	FirstAirDate     string       `json:"first_air_date"`
	PosterPath       *string      `json:"poster_path"`
	Homepage         string       `json:"homepage"`
	OriginalLanguage string       `json:"original_language"`
	NumberOfSeasons  int          `json:"number_of_seasons"`
	Genres           []Genre      `json:"genres"`
	CreatedBy        []TVCreator  `json:"created_by,omitempty"`
	ExternalIDs      *ExternalIDs `json:"external_ids,omitempty"`
}

// Genre is a TMDB genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TVCreator is a series creator.
type TVCreator struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Credits holds cast and crew.
type Credits struct {
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

// ExternalIDs holds ids on other services.
type ExternalIDs struct {
	ImdbID     string `json:"imdb_id"`
	WikidataID string `json:"wikidata_id"`
}

// ErrorResponse is the error body TMDB returns.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}
