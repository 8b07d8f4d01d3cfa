package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kavinm/tn-district-weather/internal/weather"
)

// regionSuffix narrows city queries to Tamil Nadu, India. District names
// like Salem or Erode are ambiguous worldwide without it.
const regionSuffix = ", Tamil Nadu, IN"

// OpenWeatherClient fetches current conditions, historical days and daily
// forecasts from the OpenWeather APIs. It implements weather.Provider.
type OpenWeatherClient struct {
	apiKey         string
	currentURL     string
	timemachineURL string
	forecastURL    string

	currentCfg  HTTPClientConfig
	temporalCfg HTTPClientConfig

	currentCircuit     *gobreaker.CircuitBreaker
	timemachineCircuit *gobreaker.CircuitBreaker
	forecastCircuit    *gobreaker.CircuitBreaker
}

// NewOpenWeatherClient builds a client over the given HTTP clients.
// Current conditions and temporal lookups take separate clients so their
// timeouts can differ; each endpoint gets its own circuit breaker.
func NewOpenWeatherClient(currentClient, temporalClient *http.Client, apiKey string) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:         apiKey,
		currentURL:     "https://api.openweathermap.org/data/2.5/weather",
		timemachineURL: "https://api.openweathermap.org/data/3.0/onecall/timemachine",
		forecastURL:    "https://api.openweathermap.org/data/3.0/onecall",
		currentCfg: HTTPClientConfig{
			Client:  currentClient,
			Backoff: defaultBackoff(),
		},
		temporalCfg: HTTPClientConfig{
			Client:  temporalClient,
			Backoff: defaultBackoff(),
		},
		currentCircuit:     newBreaker("openweather-current"),
		timemachineCircuit: newBreaker("openweather-timemachine"),
		forecastCircuit:    newBreaker("openweather-forecast"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

func defaultBackoff() BackoffConfig {
	return BackoffConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// CurrentWeather resolves a district query to its present conditions and
// coordinates.
func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, query string) (weather.CurrentObservation, error) {
	if c.apiKey == "" {
		return weather.CurrentObservation{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query+regionSuffix)
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", c.currentURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.currentCfg, c.currentCircuit, buildRequest)
	if err != nil {
		return weather.CurrentObservation{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Coord *struct {
			Lat *float64 `json:"lat"`
			Lon *float64 `json:"lon"`
		} `json:"coord"`
		Main struct {
			Temp     *float64 `json:"temp"`
			Humidity *float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed *float64 `json:"speed"`
		} `json:"wind"`
		Rain *struct {
			OneH   *float64 `json:"1h"`
			ThreeH *float64 `json:"3h"`
		} `json:"rain"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.CurrentObservation{}, err
	}

	// Rainfall reports under "1h" or "3h" when it rained, and not at all
	// otherwise. Absence means zero, not unknown.
	rain := 0.0
	if payload.Rain != nil {
		if payload.Rain.OneH != nil {
			rain = *payload.Rain.OneH
		} else if payload.Rain.ThreeH != nil {
			rain = *payload.Rain.ThreeH
		}
	}

	obs := weather.CurrentObservation{
		Metrics: weather.MetricSet{
			TemperatureC: payload.Main.Temp,
			HumidityPct:  payload.Main.Humidity,
			WindSpeedMS:  payload.Wind.Speed,
			RainfallMM:   &rain,
		},
	}
	if payload.Coord != nil && payload.Coord.Lat != nil && payload.Coord.Lon != nil {
		obs.Coord = &weather.Coordinate{Lat: *payload.Coord.Lat, Lon: *payload.Coord.Lon}
	}
	return obs, nil
}

// HistoricalDaily fetches the hourly observations of one past day and
// reduces them to a daily summary.
func (c *OpenWeatherClient) HistoricalDaily(ctx context.Context, coord weather.Coordinate, day time.Time) (weather.MetricSet, error) {
	if c.apiKey == "" {
		return weather.MetricSet{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", formatCoord(coord.Lat))
		values.Set("lon", formatCoord(coord.Lon))
		values.Set("dt", strconv.FormatInt(day.Unix(), 10))
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", c.timemachineURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.temporalCfg, c.timemachineCircuit, buildRequest)
	if err != nil {
		return weather.MetricSet{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Data   []hourlyObservation `json:"data"`
		Hourly []hourlyObservation `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.MetricSet{}, err
	}

	hours := payload.Data
	if len(hours) == 0 {
		hours = payload.Hourly
	}
	return aggregateHourly(hours), nil
}

// ForecastDaily fetches the daily forecast for the given coordinates. The
// provider decides how many days it returns.
func (c *OpenWeatherClient) ForecastDaily(ctx context.Context, coord weather.Coordinate) ([]weather.MetricSet, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", formatCoord(coord.Lat))
		values.Set("lon", formatCoord(coord.Lon))
		values.Set("exclude", "current,minutely,hourly,alerts")
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", c.forecastURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.temporalCfg, c.forecastCircuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily []struct {
			Temp struct {
				Day *float64 `json:"day"`
			} `json:"temp"`
			Humidity  *float64 `json:"humidity"`
			WindSpeed *float64 `json:"wind_speed"`
			Rain      *float64 `json:"rain"`
		} `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	out := make([]weather.MetricSet, 0, len(payload.Daily))
	for _, day := range payload.Daily {
		rain := 0.0
		if day.Rain != nil {
			rain = *day.Rain
		}
		out = append(out, weather.MetricSet{
			TemperatureC: day.Temp.Day,
			HumidityPct:  day.Humidity,
			WindSpeedMS:  day.WindSpeed,
			RainfallMM:   &rain,
		})
	}
	return out, nil
}

type hourlyObservation struct {
	Temp      *float64 `json:"temp"`
	Humidity  *float64 `json:"humidity"`
	WindSpeed *float64 `json:"wind_speed"`
	Rain      *struct {
		OneH   *float64 `json:"1h"`
		ThreeH *float64 `json:"3h"`
	} `json:"rain"`
}

// aggregateHourly reduces one day of hourly observations to averages,
// with rainfall summed over the day instead of averaged.
func aggregateHourly(hours []hourlyObservation) weather.MetricSet {
	if len(hours) == 0 {
		return weather.MetricSet{}
	}

	temps := make([]*float64, 0, len(hours))
	humidity := make([]*float64, 0, len(hours))
	wind := make([]*float64, 0, len(hours))
	rainTotal := 0.0
	for _, hour := range hours {
		temps = append(temps, hour.Temp)
		humidity = append(humidity, hour.Humidity)
		wind = append(wind, hour.WindSpeed)
		if hour.Rain != nil {
			if hour.Rain.OneH != nil {
				rainTotal += *hour.Rain.OneH
			} else if hour.Rain.ThreeH != nil {
				rainTotal += *hour.Rain.ThreeH
			}
		}
	}

	rainTotal = weather.Round2(rainTotal)
	return weather.MetricSet{
		TemperatureC: weather.Avg(temps),
		HumidityPct:  weather.Avg(humidity),
		WindSpeedMS:  weather.Avg(wind),
		RainfallMM:   &rainTotal,
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
