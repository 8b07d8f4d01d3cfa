package pipeline

import (
	"sort"
	"time"

	"github.com/kavinm/tn-district-weather/internal/weather"
)

// Partials bundles the gathered per-worker results of one run.
type Partials struct {
	Registry int
	Workers  int
	Current  []weather.CurrentRecord
	History  []weather.DatedRecord
	Forecast []weather.DatedRecord
}

// Assemble merges gathered partial results into the output snapshot.
// It is deterministic: the same partials and timestamp always produce
// the same document.
func Assemble(partials Partials, now time.Time) weather.Snapshot {
	current := make([]weather.CurrentRecord, len(partials.Current))
	copy(current, partials.Current)
	sort.Slice(current, func(i, k int) bool {
		return current[i].District < current[k].District
	})

	index := make(map[string]*weather.DistrictEntry, len(current))
	order := make([]string, 0, len(current))

	for _, rec := range current {
		workerID := rec.WorkerID
		index[rec.District] = &weather.DistrictEntry{
			District: rec.District,
			Query:    rec.Query,
			Coord:    rec.Coord,
			Current: weather.CurrentEntry{
				MetricSet: rec.Metrics,
				WorkerID:  &workerID,
				Error:     rec.Err,
			},
			History:  []weather.DatedEntry{},
			Forecast: []weather.DatedEntry{},
		}
		order = append(order, rec.District)
	}

	// ensure returns the entry for district, synthesizing an all-null
	// placeholder when phase two reports a district phase one never saw.
	ensure := func(district string) *weather.DistrictEntry {
		if entry, ok := index[district]; ok {
			return entry
		}
		entry := &weather.DistrictEntry{
			District: district,
			History:  []weather.DatedEntry{},
			Forecast: []weather.DatedEntry{},
		}
		index[district] = entry
		order = append(order, district)
		return entry
	}

	for _, rec := range partials.History {
		entry := ensure(rec.District)
		entry.History = append(entry.History, datedEntry(rec))
	}
	for _, rec := range partials.Forecast {
		entry := ensure(rec.District)
		entry.Forecast = append(entry.Forecast, datedEntry(rec))
	}

	districts := make([]weather.DistrictEntry, 0, len(order))
	for _, name := range order {
		entry := index[name]
		sort.Slice(entry.History, func(i, k int) bool {
			return entry.History[i].Date < entry.History[k].Date
		})
		sort.Slice(entry.Forecast, func(i, k int) bool {
			return entry.Forecast[i].Date < entry.Forecast[k].Date
		})
		districts = append(districts, *entry)
	}

	currentSets := make([]weather.MetricSet, 0, len(districts))
	for _, entry := range districts {
		currentSets = append(currentSets, entry.Current.MetricSet)
	}

	return weather.Snapshot{
		LastUpdated: now,
		Districts:   districts,
		Averages: weather.PhaseAverages{
			Current:  weather.AvgMetricSets(currentSets),
			History:  weather.AvgMetricSets(metricSets(partials.History)),
			Forecast: weather.AvgMetricSets(metricSets(partials.Forecast)),
		},
		Meta: weather.Meta{
			TotalDistricts: partials.Registry,
			WorkerCount:    partials.Workers,
			HistoryDates:   collectDates(partials.History),
			ForecastDates:  collectDates(partials.Forecast),
			Workload: weather.Workload{
				Current:  countCurrentByWorker(partials.Current),
				History:  countByWorker(partials.History),
				Forecast: countByWorker(partials.Forecast),
			},
		},
	}
}

func datedEntry(rec weather.DatedRecord) weather.DatedEntry {
	return weather.DatedEntry{
		Date:      rec.Date,
		MetricSet: rec.Metrics,
		WorkerID:  rec.WorkerID,
		Error:     rec.Err,
	}
}

func metricSets(records []weather.DatedRecord) []weather.MetricSet {
	out := make([]weather.MetricSet, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Metrics)
	}
	return out
}

// collectDates returns the sorted distinct dates seen across records.
// It never returns nil so an empty list still marshals as [].
func collectDates(records []weather.DatedRecord) []string {
	seen := make(map[string]struct{}, len(records))
	dates := []string{}
	for _, rec := range records {
		if _, ok := seen[rec.Date]; ok {
			continue
		}
		seen[rec.Date] = struct{}{}
		dates = append(dates, rec.Date)
	}
	sort.Strings(dates)
	return dates
}

func countCurrentByWorker(records []weather.CurrentRecord) map[int]int {
	counts := make(map[int]int)
	for _, rec := range records {
		counts[rec.WorkerID]++
	}
	return counts
}

func countByWorker(records []weather.DatedRecord) map[int]int {
	counts := make(map[int]int)
	for _, rec := range records {
		counts[rec.WorkerID]++
	}
	return counts
}
