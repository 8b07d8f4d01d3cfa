package pipeline

import (
	"time"

	"github.com/kavinm/tn-district-weather/internal/weather"
)

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PastDays lists the n UTC days before now, oldest first. Today is
// excluded.
func PastDays(now time.Time, n int) []time.Time {
	today := midnightUTC(now)
	out := make([]time.Time, 0, n)
	for i := n; i >= 1; i-- {
		out = append(out, today.AddDate(0, 0, -i))
	}
	return out
}

// NextDays lists the n UTC days after now, starting tomorrow.
func NextDays(now time.Time, n int) []time.Time {
	today := midnightUTC(now)
	out := make([]time.Time, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, today.AddDate(0, 0, i))
	}
	return out
}

// PlanTemporalTasks expands current-weather results into second-phase
// work: one history task per district per past day, and one forecast
// task per district carrying all forecast dates. Task order follows the
// order of current, with history dates ascending. Districts without
// coordinates still get tasks, with Coord left nil, so every district
// shows up in the history and forecast output.
func PlanTemporalTasks(current []weather.CurrentRecord, histDates, fcDates []time.Time) ([]weather.HistoryTask, []weather.ForecastTask) {
	histTasks := make([]weather.HistoryTask, 0, len(current)*len(histDates))
	fcTasks := make([]weather.ForecastTask, 0, len(current))

	for _, rec := range current {
		for _, date := range histDates {
			histTasks = append(histTasks, weather.HistoryTask{
				District: rec.District,
				Query:    rec.Query,
				Coord:    rec.Coord,
				Date:     date,
			})
		}
		fcTasks = append(fcTasks, weather.ForecastTask{
			District: rec.District,
			Query:    rec.Query,
			Coord:    rec.Coord,
			Dates:    fcDates,
		})
	}
	return histTasks, fcTasks
}
