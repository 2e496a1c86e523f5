package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mydehq/mediasort/internal/types"
)

const (
	tmdbName    = "tmdb"
	tmdbBaseURL = "https://api.themoviedb.org/3"

	// Very generic search terms can produce a lot of result pages; the
	// right candidate may still be buried in there, but don't go crazy.
	tmdbMaxPages = 5
)

// TMDB searches themoviedb.org for both movies and TV series.
type TMDB struct {
	key    string
	base   string
	client *http.Client
}

// NewTMDB builds a TMDB provider. baseURL is optional and exists so the
// configuration (and tests) can point the provider elsewhere.
func NewTMDB(key, baseURL string) *TMDB {
	if baseURL == "" {
		baseURL = tmdbBaseURL
	}
	return &TMDB{key: key, base: baseURL, client: newHTTPClient()}
}

func (t *TMDB) Name() string { return tmdbName }

func (t *TMDB) Serves(mediaType types.MediaType) bool {
	return mediaType == types.MediaTypeMovie || mediaType == types.MediaTypeTV
}

// Configured reports whether the provider has the API key it needs.
func (t *TMDB) Configured() bool { return t.key != "" }

type tmdbSearchResponse struct {
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Results    []tmdbSearchItem `json:"results"`
}

type tmdbSearchItem struct {
	ID           json.Number `json:"id"`
	Title        string      `json:"title"`
	Name         string      `json:"name"`
	ReleaseDate  string      `json:"release_date"`
	FirstAirDate string      `json:"first_air_date"`
	Popularity   float64     `json:"popularity"`
}

// Search queries the movie or TV search endpoint, following result pages
// up to tmdbMaxPages. TMDB search results do not confirm individual
// episodes, so TV candidates are returned with a nil Episode.
func (t *TMDB) Search(ctx context.Context, term string, mediaType types.MediaType, season, episode int) ([]types.RawCandidate, error) {
	if !t.Configured() {
		return nil, types.ErrProvider{Provider: tmdbName, Kind: types.ProviderErrHTTP, Err: fmt.Errorf("api key required")}
	}

	endpoint := "search/movie"
	if mediaType == types.MediaTypeTV {
		endpoint = "search/tv"
	}

	var items []tmdbSearchItem
	page := 1
	for {
		u := fmt.Sprintf("%s/%s?api_key=%s&query=%s&page=%d",
			t.base, endpoint, url.QueryEscape(t.key), url.QueryEscape(term), page)

		var resp tmdbSearchResponse
		if _, err := getJSON(ctx, t.client, tmdbName, u, &resp, false); err != nil {
			return nil, err
		}
		items = append(items, resp.Results...)

		if page >= resp.TotalPages || page >= tmdbMaxPages || len(resp.Results) == 0 {
			break
		}
		page++
	}

	out := make([]types.RawCandidate, 0, len(items))
	for _, item := range items {
		out = append(out, item.toCandidate(mediaType))
	}
	return out, nil
}

func (item tmdbSearchItem) toCandidate(mediaType types.MediaType) types.RawCandidate {
	title := item.Title
	date := item.ReleaseDate
	if mediaType == types.MediaTypeTV {
		title = item.Name
		date = item.FirstAirDate
	}
	return types.RawCandidate{
		Provider:   tmdbName,
		ID:         item.ID.String(),
		Title:      title,
		Year:       yearFromDate(date),
		Type:       mediaType,
		Popularity: item.Popularity,
	}
}

// yearFromDate extracts the year from an ISO "YYYY-MM-DD" date, or 0.
func yearFromDate(date string) int {
	head, _, _ := strings.Cut(date, "-")
	year, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return year
}
