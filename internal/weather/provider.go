package weather

import (
	"context"
	"time"
)

// CurrentObservation is a provider's normalized current-conditions response.
// Coord is nil when the provider did not report both latitude and longitude.
type CurrentObservation struct {
	Metrics MetricSet
	Coord   *Coordinate
}

// Provider abstracts the external weather data source.
type Provider interface {
	// CurrentWeather fetches current conditions for a location query.
	CurrentWeather(ctx context.Context, query string) (CurrentObservation, error)

	// HistoricalDaily fetches one past day's metrics, aggregated to daily
	// values, for a coordinate. day is a UTC midnight.
	HistoricalDaily(ctx context.Context, coord Coordinate, day time.Time) (MetricSet, error)

	// ForecastDaily fetches the provider's daily forecast batch for a
	// coordinate, in day order starting from the provider's first day.
	ForecastDaily(ctx context.Context, coord Coordinate) ([]MetricSet, error)
}

// SnapshotStore is the contract the pipeline persists its result through.
type SnapshotStore interface {
	Save(snapshot Snapshot) error
}
