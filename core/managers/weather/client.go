// Package weather fetches current conditions from the Open-Meteo API, which
// is free and needs no API key.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const baseURL = "https://api.open-meteo.com/v1/forecast"

// ForecastSlot is a single short-range forecast entry.
type ForecastSlot struct {
	Time string
	Temp float64
	Code int
}

// Report is a current-conditions snapshot plus the day's range.
type Report struct {
	Temp     float64
	Code     int
	IsDay    bool
	High     float64
	Low      float64
	Forecast []ForecastSlot
}

// Client fetches weather for a fixed location.
type Client struct {
	latitude  float64
	longitude float64

	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Report]
}

func NewClient(latitude, longitude float64) *Client {
	return &Client{
		latitude:  latitude,
		longitude: longitude,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   5 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker[*Report](gobreaker.Settings{
			Name: "open-meteo",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
		IsDay       int     `json:"is_day"`
	} `json:"current"`
	Hourly struct {
		Time        []string  `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"hourly"`
}

// Current fetches the current conditions, today's high/low, and a short
// 2-hour-step forecast.
func (c *Client) Current(ctx context.Context) (*Report, error) {
	return c.breaker.Execute(func() (*Report, error) {
		return c.fetch(ctx)
	})
}

func (c *Client) fetch(ctx context.Context) (*Report, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(c.latitude, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(c.longitude, 'f', 4, 64))
	params.Set("current", "temperature_2m,weather_code,is_day")
	params.Set("hourly", "temperature_2m,weather_code")
	params.Set("temperature_unit", "celsius")
	params.Set("timezone", "auto")
	params.Set("forecast_days", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather fetch returned non-OK status: %s", resp.Status)
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	report := &Report{
		Temp:  body.Current.Temperature,
		Code:  body.Current.WeatherCode,
		IsDay: body.Current.IsDay == 1,
	}

	temps := body.Hourly.Temperature
	for i, temp := range temps {
		if i == 0 || temp > report.High {
			report.High = temp
		}
		if i == 0 || temp < report.Low {
			report.Low = temp
		}
	}

	// Build a short forecast in 2-hour steps starting from the current hour.
	nowHour := time.Now().Hour()
	for i := nowHour; i < len(body.Hourly.Time) && i < nowHour+7 && len(report.Forecast) < 4; i += 2 {
		slot := ForecastSlot{Temp: temps[i]}
		if i < len(body.Hourly.WeatherCode) {
			slot.Code = body.Hourly.WeatherCode[i]
		}
		if parsed, err := time.Parse("2006-01-02T15:04", body.Hourly.Time[i]); err == nil {
			slot.Time = parsed.Format("3PM")
		} else {
			slot.Time = body.Hourly.Time[i]
		}
		report.Forecast = append(report.Forecast, slot)
	}

	return report, nil
}
