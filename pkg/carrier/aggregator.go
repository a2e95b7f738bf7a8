package carrier

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Aggregator fans a rate request out to every healthy registered carrier and
// merges the results.
type Aggregator struct {
	registry *Registry
	logger   *otelzap.Logger
}

// NewAggregator creates a rate aggregator over the registry.
func NewAggregator(registry *Registry, logger *otelzap.Logger) *Aggregator {
	return &Aggregator{registry: registry, logger: logger}
}

// GetAllRates issues one rate request per healthy carrier concurrently. A
// single carrier's failure is logged and excluded; it never fails the
// aggregate call. The merged list is sorted ascending by total cost, ties
// broken by carrier registration order.
func (a *Aggregator) GetAllRates(ctx context.Context, req *RateRequest) ([]Rate, error) {
	carriers := a.registry.Healthy()
	if len(carriers) == 0 {
		return nil, ErrCarrierNotFound
	}

	perCarrier := make([][]Rate, len(carriers))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range carriers {
		g.Go(func() error {
			rates, err := c.GetRates(ctx, req)
			if err != nil {
				a.logger.Warn("Carrier rate lookup failed, excluding from aggregate",
					zap.String("carrier", c.Name()),
					zap.Error(err),
				)
				return nil // keep the rest of the aggregation alive
			}
			mu.Lock()
			perCarrier[i] = rates
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	var merged []Rate
	for _, rates := range perCarrier {
		merged = append(merged, rates...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Cost.Amount < merged[j].Cost.Amount
	})
	return merged, nil
}

// GetRatesFrom requests rates from a single named carrier. Unlike the
// aggregate path, a failure here is surfaced to the caller.
func (a *Aggregator) GetRatesFrom(ctx context.Context, name string, req *RateRequest) ([]Rate, error) {
	c, err := a.registry.Get(name)
	if err != nil {
		return nil, err
	}
	rates, err := c.GetRates(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].Cost.Amount < rates[j].Cost.Amount
	})
	return rates, nil
}

// CheapestRate returns the lowest-cost rate across all healthy carriers.
func (a *Aggregator) CheapestRate(ctx context.Context, req *RateRequest) (*Rate, error) {
	rates, err := a.GetAllRates(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, ErrCarrierUnavailable
	}
	return &rates[0], nil
}

// FastestRate returns the rate with the smallest maximum estimated-day
// range. A rate with no estimate sorts last.
func (a *Aggregator) FastestRate(ctx context.Context, req *RateRequest) (*Rate, error) {
	rates, err := a.GetAllRates(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, ErrCarrierUnavailable
	}

	sort.SliceStable(rates, func(i, j int) bool {
		return maxDays(rates[i]) < maxDays(rates[j])
	})
	return &rates[0], nil
}

// maxDays treats a missing estimate as effectively infinite.
func maxDays(r Rate) int {
	if !r.EstimatedDays.Known() {
		return int(^uint(0) >> 1)
	}
	return r.EstimatedDays.Max
}
