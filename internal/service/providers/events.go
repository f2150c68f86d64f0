package providers

import (
	"context"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
)

// EventsSource pulls scheduled public events near a location and reports
// expected daily attendance.
type EventsSource struct {
	*httpBase
}

type eventItem struct {
	Date       string  `json:"date"`
	Attendance float64 `json:"expected_attendance"`
}

type eventsResponse struct {
	Events []eventItem `json:"events"`
}

func NewEventsSource(baseURL string, timeout time.Duration) *EventsSource {
	return &EventsSource{httpBase: newHTTPBase(baseURL, timeout)}
}

func (e *EventsSource) Name() string { return "events" }

// Fetch sums attendance across events landing on the same day so each
// day yields at most one signal.
func (e *EventsSource) Fetch(ctx context.Context, location string, from, to time.Time) ([]*models.Signal, error) {
	var resp eventsResponse
	if err := e.getJSON(ctx, e.Name(), "/v1/events", dayRangeParams(location, from, to), &resp); err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]float64)
	for _, ev := range resp.Events {
		day, err := time.Parse("2006-01-02", ev.Date)
		if err != nil {
			continue
		}
		byDay[day.UTC()] += ev.Attendance
	}

	signals := make([]*models.Signal, 0, len(byDay))
	for day, total := range byDay {
		signals = append(signals, &models.Signal{
			Source:    models.SourceEvents,
			Metric:    models.MetricKey(location, "events"),
			Timestamp: day,
			Value:     total,
			Unit:      "persons",
		})
	}
	return signals, nil
}

var _ domrepo.SignalSource = (*EventsSource)(nil)
