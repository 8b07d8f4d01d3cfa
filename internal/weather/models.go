package weather

import (
	"time"
)

// DateLayout is the civil-date format used for history and forecast entries.
const DateLayout = "2006-01-02"

// Location identifies one district tracked by the pipeline.
// Query is the town name the weather provider resolves for the district;
// it differs from the district name where the district is not itself a city.
type Location struct {
	District string `json:"district" validate:"required"`
	Query    string `json:"query" validate:"required"`
}

// Coordinate is a geographic point reported by the provider.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MetricSet holds the four tracked weather metrics. Fields are pointers so a
// metric the provider did not report serializes as an explicit null instead
// of a fabricated zero.
type MetricSet struct {
	TemperatureC *float64 `json:"temperature_c"`
	HumidityPct  *float64 `json:"humidity_pct"`
	WindSpeedMS  *float64 `json:"wind_speed_ms"`
	RainfallMM   *float64 `json:"rainfall_mm"`
}

// CurrentRecord is one worker's result for a single district in the
// current-conditions phase. A failed fetch leaves Metrics zero (all null)
// and records the failure in Err; Coord is present only on success and only
// when the provider reported usable coordinates.
type CurrentRecord struct {
	District string
	Query    string
	WorkerID int
	Coord    *Coordinate
	Metrics  MetricSet
	Err      string
}

// DatedRecord is one worker's result for a single district and date in the
// history or forecast phase.
type DatedRecord struct {
	District string
	Date     string
	WorkerID int
	Metrics  MetricSet
	Err      string
}

// HistoryTask asks a worker for one district's metrics on one past day.
// Coord is nil when the current-conditions phase produced no coordinates;
// the worker then reports the failure without calling the provider.
type HistoryTask struct {
	District string
	Query    string
	Coord    *Coordinate
	Date     time.Time
}

// ForecastTask asks a worker for one district's daily forecasts. The provider
// returns a multi-day batch in one call; Dates fixes which days the worker
// reports, in order.
type ForecastTask struct {
	District string
	Query    string
	Coord    *Coordinate
	Dates    []time.Time
}

// CurrentEntry is the assembled per-district current-conditions block.
// WorkerID is null only on placeholder entries synthesized for districts
// that never produced a current record.
type CurrentEntry struct {
	MetricSet
	WorkerID *int   `json:"worker_id"`
	Error    string `json:"error,omitempty"`
}

// DatedEntry is one assembled history or forecast row.
type DatedEntry struct {
	Date string `json:"date"`
	MetricSet
	WorkerID int    `json:"worker_id"`
	Error    string `json:"error,omitempty"`
}

// DistrictEntry is the assembled view of a single district.
type DistrictEntry struct {
	District string       `json:"district"`
	Query    string       `json:"query"`
	Coord    *Coordinate  `json:"coord"`
	Current  CurrentEntry `json:"current"`
	History  []DatedEntry `json:"history"`
	Forecast []DatedEntry `json:"forecast"`
}

// PhaseAverages carries the null-tolerant per-metric means for each phase.
type PhaseAverages struct {
	Current  MetricSet `json:"current"`
	History  MetricSet `json:"history"`
	Forecast MetricSet `json:"forecast"`
}

// Workload counts records produced per worker in each phase.
type Workload struct {
	Current  map[int]int `json:"current"`
	History  map[int]int `json:"history"`
	Forecast map[int]int `json:"forecast"`
}

// Meta describes the run that produced a snapshot.
type Meta struct {
	TotalDistricts int      `json:"total_districts"`
	WorkerCount    int      `json:"worker_count"`
	HistoryDates   []string `json:"history_dates"`
	ForecastDates  []string `json:"forecast_dates"`
	Workload       Workload `json:"workload"`
}

// Snapshot is the complete output document of one pipeline run.
type Snapshot struct {
	LastUpdated time.Time       `json:"last_updated"`
	Districts   []DistrictEntry `json:"districts"`
	Averages    PhaseAverages   `json:"averages"`
	Meta        Meta            `json:"meta"`
}
