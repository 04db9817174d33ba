package owm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast-labs/forecast-cli/internal/config"
)

const sampleForecast = `{
  "city": {"name": "Mountain View", "coord": {"lat": 37.39, "lon": -122.08}},
  "list": [
    {"pressure": 1012, "humidity": 40, "speed": 3.1, "deg": 280,
     "temp": {"max": 31, "min": 11}, "weather": [{"main": "clear", "id": 800}]},
    {"pressure": 1005, "humidity": 80, "speed": 5.5, "deg": 190,
     "temp": {"max": 20, "min": 10}, "weather": [{"main": "rain", "id": 500}]}
  ]
}`

func testClient(baseURL string) *Client {
	return NewClient(config.OWMConfig{
		Key:         "test-key",
		BaseURL:     baseURL,
		TimeoutSecs: 5,
		RatePerSec:  100,
		Burst:       10,
	})
}

func TestFetchDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "94043", q.Get("q"))
		assert.Equal(t, "json", q.Get("mode"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "14", q.Get("cnt"))
		assert.Equal(t, "test-key", q.Get("APPID"))
		w.Write([]byte(sampleForecast)) //nolint:errcheck
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).FetchDaily(context.Background(), "94043", 14)
	require.NoError(t, err)

	assert.Equal(t, "Mountain View", resp.City.Name)
	assert.Equal(t, 37.39, resp.City.Coord.Lat)
	require.Len(t, resp.List, 2)
	assert.Equal(t, 800, resp.List[0].Weather[0].ID)
	assert.Equal(t, 31.0, resp.List[0].Temp.Max)
	assert.Equal(t, "rain", resp.List[1].Weather[0].Main)
}

func TestFetchDaily_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchDaily(context.Background(), "94043", 14)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestFetchDaily_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchDaily(context.Background(), "94043", 14)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyBody))
}

func TestFetchDaily_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"city": nonsense`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchDaily(context.Background(), "94043", 14)
	assert.Error(t, err)
}

func TestFetchDaily_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := testClient(srv.URL).FetchDaily(context.Background(), "94043", 14)
	assert.Error(t, err)
}

func TestFetchDaily_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for range 10 {
		_, err := c.FetchDaily(context.Background(), "94043", 14)
		require.Error(t, err)
	}

	// Once open, calls fail fast without hitting the server.
	_, err := c.FetchDaily(context.Background(), "94043", 14)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
}
