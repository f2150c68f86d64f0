package providers

import (
	"context"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
)

// RentListingsSource pulls the median asking rent for commercial listings
// around a location. Listings portals publish at most one median per day,
// so the day window usually collapses to a handful of points.
type RentListingsSource struct {
	*httpBase
}

type rentPoint struct {
	Date       string  `json:"date"`
	MedianRent float64 `json:"median_rent"`
}

type rentResponse struct {
	Points []rentPoint `json:"points"`
}

func NewRentListingsSource(baseURL string, timeout time.Duration) *RentListingsSource {
	return &RentListingsSource{httpBase: newHTTPBase(baseURL, timeout)}
}

func (r *RentListingsSource) Name() string { return "rent_listings" }

func (r *RentListingsSource) Fetch(ctx context.Context, location string, from, to time.Time) ([]*models.Signal, error) {
	var resp rentResponse
	if err := r.getJSON(ctx, r.Name(), "/v1/medians", dayRangeParams(location, from, to), &resp); err != nil {
		return nil, err
	}

	signals := make([]*models.Signal, 0, len(resp.Points))
	for _, p := range resp.Points {
		day, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			continue
		}
		signals = append(signals, &models.Signal{
			Source:    models.SourceRent,
			Metric:    models.MetricKey(location, "median_rent"),
			Timestamp: day.UTC(),
			Value:     p.MedianRent,
			Unit:      "usd",
		})
	}
	return signals, nil
}

var _ domrepo.SignalSource = (*RentListingsSource)(nil)
