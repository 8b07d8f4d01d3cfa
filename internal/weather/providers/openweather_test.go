package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kavinm/tn-district-weather/internal/weather"
)

func newTestClient(t *testing.T, serverURL string) *OpenWeatherClient {
	t.Helper()

	httpClient := &http.Client{Timeout: 2 * time.Second}
	client := NewOpenWeatherClient(httpClient, httpClient, "test-key")
	client.currentURL = serverURL
	client.timemachineURL = serverURL
	client.forecastURL = serverURL

	backoff := BackoffConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
	client.currentCfg.Backoff = backoff
	client.temporalCfg.Backoff = backoff
	return client
}

func checkMetric(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil || *got != want {
		t.Fatalf("%s: expected %v, got %v", name, want, got)
	}
}

func TestCurrentWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Chennai, Tamil Nadu, IN" {
			t.Errorf("expected region-qualified query, got %q", got)
		}
		if got := r.URL.Query().Get("units"); got != "metric" {
			t.Errorf("expected metric units, got %q", got)
		}
		if got := r.URL.Query().Get("appid"); got != "test-key" {
			t.Errorf("expected api key in query, got %q", got)
		}
		fmt.Fprint(w, `{"coord":{"lat":13.08,"lon":80.27},"main":{"temp":31.5,"humidity":74},"wind":{"speed":4.2},"rain":{"3h":1.5}}`)
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).CurrentWeather(context.Background(), "Chennai")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	checkMetric(t, "temperature", got.Metrics.TemperatureC, 31.5)
	checkMetric(t, "humidity", got.Metrics.HumidityPct, 74)
	checkMetric(t, "wind", got.Metrics.WindSpeedMS, 4.2)
	checkMetric(t, "rainfall", got.Metrics.RainfallMM, 1.5)
	if got.Coord == nil || got.Coord.Lat != 13.08 || got.Coord.Lon != 80.27 {
		t.Fatalf("expected coordinates 13.08/80.27, got %v", got.Coord)
	}
}

func TestCurrentWeatherPrefersOneHourRain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"main":{"temp":28},"rain":{"1h":0.7,"3h":9.9}}`)
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).CurrentWeather(context.Background(), "Theni")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	checkMetric(t, "rainfall", got.Metrics.RainfallMM, 0.7)
}

func TestCurrentWeatherDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"main":{"temp":30,"humidity":60},"wind":{"speed":2.1}}`)
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).CurrentWeather(context.Background(), "Erode")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	checkMetric(t, "rainfall", got.Metrics.RainfallMM, 0)
	if got.Coord != nil {
		t.Fatalf("expected nil coordinates, got %v", got.Coord)
	}
}

func TestCurrentWeatherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"main":{"temp":30}}`)
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).CurrentWeather(context.Background(), "Salem")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
	checkMetric(t, "temperature", got.Metrics.TemperatureC, 30)
}

func TestCurrentWeatherDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).CurrentWeather(context.Background(), "Atlantis")
	if !errors.Is(err, errUnexpected) {
		t.Fatalf("expected unexpected status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestHistoricalDaily(t *testing.T) {
	day := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("dt"); got != strconv.FormatInt(day.Unix(), 10) {
			t.Errorf("expected unix timestamp %d, got %q", day.Unix(), got)
		}
		if got := r.URL.Query().Get("lat"); got != "13.08" {
			t.Errorf("expected lat 13.08, got %q", got)
		}
		fmt.Fprint(w, `{"data":[
			{"temp":24,"humidity":60,"wind_speed":3,"rain":{"1h":1.2}},
			{"temp":26,"humidity":80,"wind_speed":5,"rain":{"3h":0.3}}
		]}`)
	}))
	defer srv.Close()

	coord := weather.Coordinate{Lat: 13.08, Lon: 80.27}
	got, err := newTestClient(t, srv.URL).HistoricalDaily(context.Background(), coord, day)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	checkMetric(t, "temperature", got.TemperatureC, 25)
	checkMetric(t, "humidity", got.HumidityPct, 70)
	checkMetric(t, "wind", got.WindSpeedMS, 4)
	checkMetric(t, "rainfall", got.RainfallMM, 1.5)
}

func TestHistoricalDailyHourlyFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hourly":[{"temp":22,"humidity":90,"wind_speed":1}]}`)
	}))
	defer srv.Close()

	coord := weather.Coordinate{Lat: 9.93, Lon: 78.12}
	got, err := newTestClient(t, srv.URL).HistoricalDaily(context.Background(), coord, time.Now())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	checkMetric(t, "temperature", got.TemperatureC, 22)
	checkMetric(t, "rainfall", got.RainfallMM, 0)
}

func TestHistoricalDailyNoObservations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	coord := weather.Coordinate{Lat: 11.0, Lon: 77.0}
	got, err := newTestClient(t, srv.URL).HistoricalDaily(context.Background(), coord, time.Now())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got.TemperatureC != nil || got.HumidityPct != nil || got.WindSpeedMS != nil || got.RainfallMM != nil {
		t.Fatalf("expected all-null metrics for an empty day, got %+v", got)
	}
}

func TestForecastDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("exclude"); got != "current,minutely,hourly,alerts" {
			t.Errorf("expected daily-only exclude list, got %q", got)
		}
		fmt.Fprint(w, `{"daily":[
			{"temp":{"day":29.5},"humidity":70,"wind_speed":3.5,"rain":2.4},
			{"temp":{"day":31},"humidity":65,"wind_speed":4}
		]}`)
	}))
	defer srv.Close()

	coord := weather.Coordinate{Lat: 10.79, Lon: 78.7}
	got, err := newTestClient(t, srv.URL).ForecastDaily(context.Background(), coord)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 forecast days, got %d", len(got))
	}

	checkMetric(t, "day 0 temperature", got[0].TemperatureC, 29.5)
	checkMetric(t, "day 0 rainfall", got[0].RainfallMM, 2.4)
	checkMetric(t, "day 1 temperature", got[1].TemperatureC, 31)
	checkMetric(t, "day 1 rainfall", got[1].RainfallMM, 0)
}
