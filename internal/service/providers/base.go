package providers

import (
	"context"
	"errors"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	xhttp "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/http"
)

// httpBase centralizes client construction and GET handling for the
// pull-based provider adapters.
type httpBase struct {
	baseURL string
	client  *xhttp.Client
	timeout time.Duration
}

func newHTTPBase(baseURL string, timeout time.Duration) *httpBase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpBase{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		timeout: timeout,
	}
}

// getJSON fetches path under baseURL and decodes the JSON body into dest.
// Deadline and cancellation failures surface as upstream_timeout so a
// slow provider degrades the pipeline instead of crashing it.
func (b *httpBase) getJSON(ctx context.Context, name, path string, query map[string][]string, dest interface{}) error {
	if b.baseURL == "" {
		return models.E(models.KindInvalidConfiguration, "%s: base_url not configured", name)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		QueryParams: query,
	}, dest)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.Wrap(models.KindUpstreamTimeout, err, "%s: fetch timed out", name)
		}
		return models.Wrap(models.KindUpstreamTimeout, err, "%s: fetch failed", name)
	}
	return nil
}

func dayRangeParams(location string, from, to time.Time) map[string][]string {
	return map[string][]string{
		"location": {location},
		"from":     {from.UTC().Format("2006-01-02")},
		"to":       {to.UTC().Format("2006-01-02")},
	}
}
