package weather

import "math"

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Avg returns the mean of the non-nil values, rounded to two decimals.
// It returns nil when values holds no usable numbers, so a column that never
// reported stays null instead of collapsing to zero.
func Avg(values []*float64) *float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	mean := Round2(sum / float64(n))
	return &mean
}

// AvgMetricSets averages each metric column across the given sets,
// ignoring nulls per column.
func AvgMetricSets(sets []MetricSet) MetricSet {
	temps := make([]*float64, 0, len(sets))
	hums := make([]*float64, 0, len(sets))
	winds := make([]*float64, 0, len(sets))
	rains := make([]*float64, 0, len(sets))

	for _, m := range sets {
		temps = append(temps, m.TemperatureC)
		hums = append(hums, m.HumidityPct)
		winds = append(winds, m.WindSpeedMS)
		rains = append(rains, m.RainfallMM)
	}

	return MetricSet{
		TemperatureC: Avg(temps),
		HumidityPct:  Avg(hums),
		WindSpeedMS:  Avg(winds),
		RainfallMM:   Avg(rains),
	}
}
