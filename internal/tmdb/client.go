// Package tmdb implements the metadata gateway: a thin client for The Movie
// Database HTTP API covering title search, detail fetches, and the popular
// list. Callers treat a failed call as "no result" for flow purposes; the
// client distinguishes a clean miss (ErrNoResults) from a network or service
// failure (ErrUnavailable) so the orchestrator can phrase replies correctly.
//
// Every call is a single attempt with a context deadline; retries are the
// caller's decision and none of the current flows retry.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmoran/go-movie-channel/internal/config"
	"github.com/dmoran/go-movie-channel/internal/domain"
)

var (
	// ErrNoResults means the service answered but nothing matched.
	ErrNoResults = errors.New("tmdb: no results")

	// ErrUnavailable means the service could not be reached or answered
	// with a non-2xx status.
	ErrUnavailable = errors.New("tmdb: service unavailable")
)

// Client talks to the TMDB v3 API.
type Client struct {
	baseURL       string
	posterBaseURL string
	apiKey        string
	language      string
	httpClient    *http.Client
	log           zerolog.Logger
}

// NewClient constructs a Client from configuration.
func NewClient(cfg config.TMDBConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL:       cfg.BaseURL,
		posterBaseURL: cfg.PosterBaseURL,
		apiKey:        cfg.APIKey,
		language:      cfg.Language,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		log:           log.With().Str("component", "tmdb").Logger(),
	}
}

// searchResponse is the wire shape of /search/movie.
type searchResponse struct {
	Results []domain.MovieDetails `json:"results"`
}

// SearchMovie resolves a title (and optional year, 0 meaning unknown) to the
// external id of the best match. Returns ErrNoResults on a clean miss.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) (int64, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", title)
	q.Set("language", c.language)
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}

	var resp searchResponse
	if err := c.get(ctx, "/search/movie", q, &resp); err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 {
		return 0, ErrNoResults
	}
	return resp.Results[0].ID, nil
}

// MovieDetails fetches the full descriptor for an external id.
func (c *Client) MovieDetails(ctx context.Context, externalID int64) (*domain.MovieDetails, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("language", c.language)

	var d domain.MovieDetails
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", externalID), q, &d); err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, ErrNoResults
	}
	return &d, nil
}

// PopularMovies returns the first page of currently popular movies.
func (c *Client) PopularMovies(ctx context.Context) ([]domain.MovieDetails, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("language", c.language)
	q.Set("page", "1")

	var resp searchResponse
	if err := c.get(ctx, "/movie/popular", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoResults
	}
	return resp.Results, nil
}

// PosterURL builds the full poster image URL for a descriptor's poster path.
// Returns "" when the descriptor has no poster.
func (c *Client) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return c.posterBaseURL + posterPath
}

// get performs one GET request and decodes the JSON body into out.
// Network errors and non-2xx statuses are logged and wrapped in
// ErrUnavailable.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("tmdb request failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error().Int("status", resp.StatusCode).Str("path", path).Msg("tmdb returned non-2xx status")
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("tmdb response decode failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
