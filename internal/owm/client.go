// Package owm fetches daily forecasts from the OpenWeatherMap API,
// normalizes them into cache write rows, and ingests them through the
// provider so the cached window for a location always reflects the most
// recent successful fetch.
package owm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/skycast-labs/forecast-cli/internal/config"
)

// ErrEmptyBody reports a 200 response with nothing in it. Like any fetch
// failure it aborts the sync attempt without touching the cache.
var ErrEmptyBody = eris.New("owm: empty response body")

// ForecastResponse is the daily-forecast endpoint's JSON shape.
type ForecastResponse struct {
	City struct {
		Name  string `json:"name"`
		Coord struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
	} `json:"city"`
	List []ForecastEntry `json:"list"`
}

// ForecastEntry is one per-day entry. Entries are assumed ordered and
// contiguous starting from the current day; no date field in them is
// trusted (see BuildBatch).
type ForecastEntry struct {
	Pressure float64 `json:"pressure"`
	Humidity float64 `json:"humidity"`
	Speed    float64 `json:"speed"`
	Deg      float64 `json:"deg"`
	Temp     struct {
		Max float64 `json:"max"`
		Min float64 `json:"min"`
	} `json:"temp"`
	Weather []struct {
		Main string `json:"main"`
		ID   int    `json:"id"`
	} `json:"weather"`
}

// Client calls the OpenWeatherMap daily forecast API with a bounded timeout,
// client-side rate limiting, and a circuit breaker.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// NewClient builds a Client from config.
func NewClient(cfg config.OWMConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.Key,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "owm",
		}),
	}
}

// FetchDaily requests a days-long daily forecast for the location query
// string and parses the body. Network errors, non-OK statuses, empty bodies
// and malformed JSON all come back as errors; the caller aborts the sync
// attempt on any of them.
func (c *Client) FetchDaily(ctx context.Context, location string, days int) (*ForecastResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "owm: rate limit wait")
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, location, days)
	})
	if err != nil {
		return nil, err
	}
	return result.(*ForecastResponse), nil
}

func (c *Client) fetch(ctx context.Context, location string, days int) (*ForecastResponse, error) {
	q := url.Values{}
	q.Set("q", location)
	q.Set("mode", "json")
	q.Set("units", "metric")
	q.Set("cnt", strconv.Itoa(days))
	q.Set("APPID", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "owm: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "owm: fetch %s", location)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("owm: fetch %s: status %d", location, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "owm: read body for %s", location)
	}
	if len(body) == 0 {
		return nil, eris.Wrapf(ErrEmptyBody, "owm: fetch %s", location)
	}

	var parsed ForecastResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrapf(err, "owm: parse forecast for %s", location)
	}
	return &parsed, nil
}
