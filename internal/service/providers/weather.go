package providers

import (
	"context"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
)

// WeatherSource pulls a daily weather comfort index from an external
// forecast API. Values are 0..100 where higher means better footfall
// conditions.
type WeatherSource struct {
	*httpBase
	apiKey string
}

type weatherDay struct {
	Date  string  `json:"date"`
	Index float64 `json:"index"`
}

type weatherResponse struct {
	Days []weatherDay `json:"days"`
}

func NewWeatherSource(baseURL, apiKey string, timeout time.Duration) *WeatherSource {
	return &WeatherSource{httpBase: newHTTPBase(baseURL, timeout), apiKey: apiKey}
}

func (w *WeatherSource) Name() string { return "weather" }

func (w *WeatherSource) Fetch(ctx context.Context, location string, from, to time.Time) ([]*models.Signal, error) {
	query := dayRangeParams(location, from, to)
	if w.apiKey != "" {
		query["key"] = []string{w.apiKey}
	}

	var resp weatherResponse
	if err := w.getJSON(ctx, w.Name(), "/v1/daily", query, &resp); err != nil {
		return nil, err
	}

	signals := make([]*models.Signal, 0, len(resp.Days))
	for _, d := range resp.Days {
		day, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		signals = append(signals, &models.Signal{
			Source:    models.SourceWeather,
			Metric:    models.MetricKey(location, "weather"),
			Timestamp: day.UTC(),
			Value:     d.Index,
			Unit:      "index",
		})
	}
	return signals, nil
}

var _ domrepo.SignalSource = (*WeatherSource)(nil)
