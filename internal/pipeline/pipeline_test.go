package pipeline

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/kavinm/tn-district-weather/internal/store"
	"github.com/kavinm/tn-district-weather/internal/weather"
)

// fakeProvider serves canned metrics and counts calls so tests can prove
// which districts actually reached the provider.
type fakeProvider struct {
	mu            sync.Mutex
	currentCalls  int
	historyCalls  int
	forecastCalls int

	failCurrent  map[string]bool
	forecastDays int
}

func (f *fakeProvider) CurrentWeather(ctx context.Context, query string) (weather.CurrentObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentCalls++
	if f.failCurrent[query] {
		return weather.CurrentObservation{}, errors.New("current fetch exploded")
	}
	return weather.CurrentObservation{
		Metrics: weather.MetricSet{TemperatureC: fp(30), RainfallMM: fp(0)},
		Coord:   &weather.Coordinate{Lat: 10.0, Lon: 78.0},
	}, nil
}

func (f *fakeProvider) HistoricalDaily(ctx context.Context, coord weather.Coordinate, day time.Time) (weather.MetricSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	return weather.MetricSet{TemperatureC: fp(25)}, nil
}

func (f *fakeProvider) ForecastDaily(ctx context.Context, coord weather.Coordinate) ([]weather.MetricSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forecastCalls++
	days := f.forecastDays
	if days == 0 {
		days = 7
	}
	out := make([]weather.MetricSet, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, weather.MetricSet{TemperatureC: fp(28)})
	}
	return out, nil
}

func testRegistry(names ...string) []weather.Location {
	out := make([]weather.Location, 0, len(names))
	for _, name := range names {
		out = append(out, weather.Location{District: name, Query: name})
	}
	return out
}

func TestJobRun(t *testing.T) {
	provider := &fakeProvider{failCurrent: map[string]bool{"Salem": true}}
	st := store.NewMemoryStore()
	job := NewJob(testRegistry("Chennai", "Madurai", "Salem"), provider, st, 2, 7, 7)

	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	snap, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}

	if !snap.LastUpdated.Equal(now) {
		t.Fatalf("expected last_updated %v, got %v", now, snap.LastUpdated)
	}
	if len(snap.Districts) != 3 {
		t.Fatalf("expected 3 districts, got %d", len(snap.Districts))
	}
	for i, want := range []string{"Chennai", "Madurai", "Salem"} {
		if snap.Districts[i].District != want {
			t.Fatalf("district %d: expected %s, got %s", i, want, snap.Districts[i].District)
		}
	}

	// Salem's failed current fetch must not generate temporal calls.
	if provider.currentCalls != 3 {
		t.Fatalf("expected 3 current calls, got %d", provider.currentCalls)
	}
	if provider.historyCalls != 14 {
		t.Fatalf("expected 14 history calls, got %d", provider.historyCalls)
	}
	if provider.forecastCalls != 2 {
		t.Fatalf("expected 2 forecast calls, got %d", provider.forecastCalls)
	}

	salem := snap.Districts[2]
	if salem.Coord != nil {
		t.Fatalf("expected nil Salem coordinates, got %v", salem.Coord)
	}
	if salem.Current.Error != "current fetch exploded" {
		t.Fatalf("expected Salem current error, got %q", salem.Current.Error)
	}
	if len(salem.History) != 7 || len(salem.Forecast) != 7 {
		t.Fatalf("expected 7+7 degraded Salem records, got %d+%d", len(salem.History), len(salem.Forecast))
	}
	for _, row := range append(append([]weather.DatedEntry{}, salem.History...), salem.Forecast...) {
		if row.Error != missingCoordReason {
			t.Fatalf("expected missing-coordinate reason, got %q", row.Error)
		}
		if row.TemperatureC != nil || row.RainfallMM != nil {
			t.Fatalf("expected all-null metrics on degraded record, got %+v", row)
		}
	}

	chennai := snap.Districts[0]
	if len(chennai.History) != 7 {
		t.Fatalf("expected 7 Chennai history rows, got %d", len(chennai.History))
	}
	if chennai.History[0].Date != "2026-08-13" || chennai.History[6].Date != "2026-08-19" {
		t.Fatalf("unexpected history range %s..%s", chennai.History[0].Date, chennai.History[6].Date)
	}
	if chennai.Forecast[0].Date != "2026-08-21" || chennai.Forecast[6].Date != "2026-08-27" {
		t.Fatalf("unexpected forecast range %s..%s", chennai.Forecast[0].Date, chennai.Forecast[6].Date)
	}

	wantWorkload := weather.Workload{
		Current:  map[int]int{0: 2, 1: 1},
		History:  map[int]int{0: 11, 1: 10},
		Forecast: map[int]int{0: 14, 1: 7},
	}
	if !reflect.DeepEqual(snap.Meta.Workload, wantWorkload) {
		t.Fatalf("expected workload %+v, got %+v", wantWorkload, snap.Meta.Workload)
	}
	if snap.Meta.TotalDistricts != 3 || snap.Meta.WorkerCount != 2 {
		t.Fatalf("unexpected meta %+v", snap.Meta)
	}

	if got := snap.Averages.Current.TemperatureC; got == nil || *got != 30 {
		t.Fatalf("expected current temperature average 30, got %v", got)
	}
	if got := snap.Averages.History.TemperatureC; got == nil || *got != 25 {
		t.Fatalf("expected history temperature average 25, got %v", got)
	}

	stored, err := st.Load()
	if err != nil {
		t.Fatalf("expected stored snapshot, got %v", err)
	}
	if !reflect.DeepEqual(stored, snap) {
		t.Fatal("expected stored snapshot to match the returned one")
	}
}

func TestJobRunPadsShortForecasts(t *testing.T) {
	provider := &fakeProvider{forecastDays: 5}
	job := NewJob(testRegistry("Chennai"), provider, store.NewMemoryStore(), 1, 7, 7)
	job.now = func() time.Time { return time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC) }

	snap, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}

	forecast := snap.Districts[0].Forecast
	if len(forecast) != 7 {
		t.Fatalf("expected 7 forecast rows, got %d", len(forecast))
	}
	for i := 0; i < 5; i++ {
		if forecast[i].TemperatureC == nil {
			t.Fatalf("row %d: expected provider metrics, got null", i)
		}
	}
	for i := 5; i < 7; i++ {
		if forecast[i].TemperatureC != nil {
			t.Fatalf("row %d: expected null padding, got %v", i, *forecast[i].TemperatureC)
		}
		if forecast[i].Error != "" {
			t.Fatalf("row %d: padding is not an error, got %q", i, forecast[i].Error)
		}
	}
}

func TestJobRunMoreWorkersThanDistricts(t *testing.T) {
	provider := &fakeProvider{}
	job := NewJob(testRegistry("Chennai", "Madurai"), provider, store.NewMemoryStore(), 5, 7, 7)
	job.now = func() time.Time { return time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC) }

	snap, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	if len(snap.Districts) != 2 {
		t.Fatalf("expected 2 districts, got %d", len(snap.Districts))
	}
	if provider.currentCalls != 2 {
		t.Fatalf("expected 2 current calls, got %d", provider.currentCalls)
	}
	if snap.Meta.WorkerCount != 5 {
		t.Fatalf("expected worker count 5, got %d", snap.Meta.WorkerCount)
	}

	total := 0
	for _, n := range snap.Meta.Workload.History {
		total += n
	}
	if total != 14 {
		t.Fatalf("expected 14 history records across workers, got %d", total)
	}
}

func TestJobRunRejectsZeroWorkers(t *testing.T) {
	job := NewJob(testRegistry("Chennai"), &fakeProvider{}, store.NewMemoryStore(), 0, 7, 7)
	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error for zero workers")
	}
}
