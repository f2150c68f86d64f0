package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/cache"
	imetrics "github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/metrics"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/ratelimit"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/services/scoring"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/usecase"
	xhttp "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/http"
	xlogger "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/logger"
)

// OutlookHandler serves forward-looking outlooks over Echo.
type OutlookHandler struct {
	logger  *xlogger.Logger
	engine  *usecase.OutlookEngine
	all     *usecase.OutlookAggregateUseCase
	rent    *scoring.Rent
	cache   cache.BytesCache
	ttl     time.Duration
	limiter *ratelimit.Limiter
}

type OutlookHandlerOption func(*OutlookHandler)

// WithResponseCache caches rendered outlook payloads for ttl.
func WithResponseCache(c cache.BytesCache, ttl time.Duration) OutlookHandlerOption {
	return func(h *OutlookHandler) {
		h.cache = c
		h.ttl = ttl
	}
}

// WithRateLimiter throttles per client IP.
func WithRateLimiter(l *ratelimit.Limiter) OutlookHandlerOption {
	return func(h *OutlookHandler) { h.limiter = l }
}

func NewOutlookHandler(logger *xlogger.Logger, engine *usecase.OutlookEngine, all *usecase.OutlookAggregateUseCase, rent *scoring.Rent, opts ...OutlookHandlerOption) *OutlookHandler {
	h := &OutlookHandler{logger: logger, engine: engine, all: all, rent: rent, ttl: 5 * time.Minute}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *OutlookHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/outlook", h.Outlook)
	g.GET("/outlook/all", h.All)
	g.GET("/rent/baseline", h.RentBaseline)
}

func (h *OutlookHandler) Outlook(c echo.Context) error {
	start := time.Now()
	defer func() { imetrics.OutlookLatency.WithLabelValues("outlook").Observe(time.Since(start).Seconds()) }()

	if !h.allow(c, "outlook") {
		return xhttp.DataResponse(c, 429, "rate limit exceeded")
	}

	req := &models.OutlookRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := cache.Key("outlook", req.Location, req.Module, fmt.Sprintf("%d", req.Days))
	if b, ok := h.cached(key); ok {
		imetrics.OutlookCacheHits.WithLabelValues("outlook").Inc()
		return xhttp.SuccessResponse(c, json.RawMessage(b))
	}

	res, err := h.engine.Outlook(c.Request().Context(), *req)
	if err != nil {
		imetrics.OutlookErrors.WithLabelValues("outlook").Inc()
		h.logger.Error("outlook usecase error", xlogger.Error(err))
		return domainErrorResponse(c, err)
	}

	h.store(key, res)
	return xhttp.SuccessResponse(c, res)
}

func (h *OutlookHandler) All(c echo.Context) error {
	start := time.Now()
	defer func() { imetrics.OutlookLatency.WithLabelValues("outlook_all").Observe(time.Since(start).Seconds()) }()

	if !h.allow(c, "outlook_all") {
		return xhttp.DataResponse(c, 429, "rate limit exceeded")
	}

	req := &models.AggregateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := cache.Key("outlook_all", req.Location, fmt.Sprintf("%d", req.Days))
	if b, ok := h.cached(key); ok {
		imetrics.OutlookCacheHits.WithLabelValues("outlook_all").Inc()
		return xhttp.SuccessResponse(c, json.RawMessage(b))
	}

	res, err := h.all.All(c.Request().Context(), req.Location, req.Days)
	if err != nil {
		imetrics.OutlookErrors.WithLabelValues("outlook_all").Inc()
		h.logger.Error("outlook aggregate error", xlogger.Error(err))
		return domainErrorResponse(c, err)
	}

	h.store(key, res)
	return xhttp.SuccessResponse(c, res)
}

// RentBaseline exposes the fitted baseline so operators can sanity-check
// what the rent model is comparing against.
func (h *OutlookHandler) RentBaseline(c echo.Context) error {
	if h.rent == nil {
		return xhttp.NotFoundResponse(c, "rent model not configured")
	}
	b := h.rent.Baseline()
	return xhttp.SuccessResponse(c, b)
}

func (h *OutlookHandler) allow(c echo.Context, route string) bool {
	if h.limiter == nil {
		return true
	}
	return h.limiter.Allow(route+"|"+c.RealIP(), 20, 10)
}

func (h *OutlookHandler) cached(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil || !ok {
		return nil, false
	}
	return b, true
}

func (h *OutlookHandler) store(key string, v interface{}) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, h.ttl); err != nil {
		h.logger.Warn("outlook cache write failed", xlogger.Error(err))
	}
}
