package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
)

// OutlookAggregateUseCase fans one request out across every module. A
// failed module lands in Errors instead of aborting the others.
type OutlookAggregateUseCase struct {
	engine  *OutlookEngine
	timeout time.Duration
}

func NewOutlookAggregateUseCase(engine *OutlookEngine) *OutlookAggregateUseCase {
	return &OutlookAggregateUseCase{engine: engine, timeout: 15 * time.Second}
}

func (uc *OutlookAggregateUseCase) All(ctx context.Context, location string, days int) (*models.AggregateOutlooks, error) {
	if location == "" {
		return nil, models.E(models.KindInvalidSignal, "location required")
	}
	if days <= 0 {
		days = 7
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &models.AggregateOutlooks{
		Location:    location,
		GeneratedAt: time.Now().UTC(),
		Modules:     map[models.Module]*models.OutlookResponse{},
		Errors:      map[models.Module]string{},
	}

	type item struct {
		module models.Module
		resp   *models.OutlookResponse
		err    error
	}
	modules := []models.Module{models.ModuleCashflow, models.ModuleTourism, models.ModuleRent, models.ModuleDemand}
	ch := make(chan item, len(modules))
	var wg sync.WaitGroup

	for _, m := range modules {
		wg.Add(1)
		go func(m models.Module) {
			defer wg.Done()
			resp, err := uc.engine.Outlook(ctx, models.OutlookRequest{
				Location: location,
				Days:     days,
				Module:   string(m),
			})
			ch <- item{m, resp, err}
		}(m)
	}

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.module] = it.err.Error()
			continue
		}
		res.Modules[it.module] = it.resp
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}
