// Package pipeline fetches district weather with a fixed-size worker
// group. All workers run the same phase sequence and meet at collective
// barriers; worker 0 additionally plans the temporal phase, assembles
// the snapshot and persists it.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kavinm/tn-district-weather/internal/collective"
	"github.com/kavinm/tn-district-weather/internal/partition"
	"github.com/kavinm/tn-district-weather/internal/weather"
)

// coordinatorRank plans work, assembles results and writes the snapshot.
const coordinatorRank = 0

// missingCoordReason annotates history and forecast records of districts
// whose current-weather lookup produced no coordinates. Those records are
// derived locally, without a provider call.
const missingCoordReason = "missing coordinates from current weather phase"

// Job is one configured fetch pipeline. It owns no shared mutable state;
// workers exchange data exclusively through collectives.
type Job struct {
	registry     []weather.Location
	provider     weather.Provider
	store        weather.SnapshotStore
	workers      int
	historyDays  int
	forecastDays int

	now func() time.Time
}

// NewJob assembles a pipeline over the given district registry, provider
// and snapshot store.
func NewJob(registry []weather.Location, provider weather.Provider, store weather.SnapshotStore, workers, historyDays, forecastDays int) *Job {
	return &Job{
		registry:     registry,
		provider:     provider,
		store:        store,
		workers:      workers,
		historyDays:  historyDays,
		forecastDays: forecastDays,
		now:          time.Now,
	}
}

// Run executes one full fetch cycle and persists the resulting snapshot.
// Individual fetch failures degrade to per-record errors and never abort
// the run.
func (j *Job) Run(ctx context.Context) (weather.Snapshot, error) {
	if j.workers < 1 {
		return weather.Snapshot{}, fmt.Errorf("worker count must be at least 1, got %d", j.workers)
	}
	if err := ctx.Err(); err != nil {
		return weather.Snapshot{}, err
	}

	now := j.now().UTC()
	group := collective.New(j.workers)

	var snap weather.Snapshot
	eg, ctx := errgroup.WithContext(ctx)
	for rank := 0; rank < j.workers; rank++ {
		eg.Go(func() error {
			result, err := j.runRank(ctx, group, rank, now)
			if err != nil {
				return err
			}
			if rank == coordinatorRank {
				snap = result
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return weather.Snapshot{}, err
	}

	if err := j.store.Save(snap); err != nil {
		return weather.Snapshot{}, fmt.Errorf("persist snapshot: %w", err)
	}
	return snap, nil
}

// runRank is the per-worker program. Every rank must pass through the
// same collectives in the same order, so no step between them may return
// early; fetch problems are carried as degraded records instead.
func (j *Job) runRank(ctx context.Context, group *collective.Group, rank int, now time.Time) (weather.Snapshot, error) {
	registry := collective.Broadcast(group, rank, coordinatorRank, j.registry)

	// Phase one: current conditions for a contiguous slice of districts.
	start, end := partition.Bounds(len(registry), group.Size(), rank)
	current := j.fetchCurrent(ctx, rank, registry[start:end])
	currentByRank := collective.Gather(group, rank, coordinatorRank, current)

	// The coordinator plans the temporal phase from the gathered
	// coordinates and deals the tasks back out round-robin.
	var flatCurrent []weather.CurrentRecord
	var histChunks [][]weather.HistoryTask
	var fcChunks [][]weather.ForecastTask
	if rank == coordinatorRank {
		flatCurrent = flatten(currentByRank)
		sort.Slice(flatCurrent, func(i, k int) bool {
			return flatCurrent[i].District < flatCurrent[k].District
		})

		histTasks, fcTasks := PlanTemporalTasks(flatCurrent,
			PastDays(now, j.historyDays), NextDays(now, j.forecastDays))
		histChunks = partition.Distribute(histTasks, group.Size())
		fcChunks = partition.Distribute(fcTasks, group.Size())
	}

	myHistory := collective.Scatter(group, rank, coordinatorRank, histChunks)
	myForecast := collective.Scatter(group, rank, coordinatorRank, fcChunks)

	// Phase two: history and forecast for the dealt tasks.
	historyRecords := j.fetchHistory(ctx, rank, myHistory)
	forecastRecords := j.fetchForecast(ctx, rank, myForecast)

	historyByRank := collective.Gather(group, rank, coordinatorRank, historyRecords)
	forecastByRank := collective.Gather(group, rank, coordinatorRank, forecastRecords)

	if rank != coordinatorRank {
		return weather.Snapshot{}, nil
	}
	return Assemble(Partials{
		Registry: len(registry),
		Workers:  group.Size(),
		Current:  flatCurrent,
		History:  flatten(historyByRank),
		Forecast: flatten(forecastByRank),
	}, now), nil
}

func (j *Job) fetchCurrent(ctx context.Context, rank int, locations []weather.Location) []weather.CurrentRecord {
	out := make([]weather.CurrentRecord, 0, len(locations))
	for _, loc := range locations {
		rec := weather.CurrentRecord{District: loc.District, Query: loc.Query, WorkerID: rank}

		obs, err := j.provider.CurrentWeather(ctx, loc.Query)
		if err != nil {
			log.Printf("worker %d: current weather fetch failed for %s: %v", rank, loc.District, err)
			rec.Err = err.Error()
		} else {
			rec.Metrics = obs.Metrics
			rec.Coord = obs.Coord
		}
		out = append(out, rec)
	}
	return out
}

func (j *Job) fetchHistory(ctx context.Context, rank int, tasks []weather.HistoryTask) []weather.DatedRecord {
	out := make([]weather.DatedRecord, 0, len(tasks))
	for _, task := range tasks {
		rec := weather.DatedRecord{
			District: task.District,
			Date:     task.Date.Format(weather.DateLayout),
			WorkerID: rank,
		}
		if task.Coord == nil {
			rec.Err = missingCoordReason
			out = append(out, rec)
			continue
		}

		metrics, err := j.provider.HistoricalDaily(ctx, *task.Coord, task.Date)
		if err != nil {
			log.Printf("worker %d: history fetch failed for %s %s: %v", rank, task.District, rec.Date, err)
			rec.Err = err.Error()
		} else {
			rec.Metrics = metrics
		}
		out = append(out, rec)
	}
	return out
}

// fetchForecast issues one provider call per district and expands the
// returned batch across the requested dates, padding with null metrics
// when the provider returns fewer days than asked.
func (j *Job) fetchForecast(ctx context.Context, rank int, tasks []weather.ForecastTask) []weather.DatedRecord {
	var out []weather.DatedRecord
	for _, task := range tasks {
		if task.Coord == nil {
			for _, date := range task.Dates {
				out = append(out, weather.DatedRecord{
					District: task.District,
					Date:     date.Format(weather.DateLayout),
					WorkerID: rank,
					Err:      missingCoordReason,
				})
			}
			continue
		}

		daily, err := j.provider.ForecastDaily(ctx, *task.Coord)
		if err != nil {
			log.Printf("worker %d: forecast fetch failed for %s: %v", rank, task.District, err)
			for _, date := range task.Dates {
				out = append(out, weather.DatedRecord{
					District: task.District,
					Date:     date.Format(weather.DateLayout),
					WorkerID: rank,
					Err:      err.Error(),
				})
			}
			continue
		}

		for i, date := range task.Dates {
			rec := weather.DatedRecord{
				District: task.District,
				Date:     date.Format(weather.DateLayout),
				WorkerID: rank,
			}
			if i < len(daily) {
				rec.Metrics = daily[i]
			}
			out = append(out, rec)
		}
	}
	return out
}

func flatten[T any](byRank [][]T) []T {
	var out []T
	for _, part := range byRank {
		out = append(out, part...)
	}
	return out
}
