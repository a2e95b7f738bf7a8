package carrier_test

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/soukly/mirsal/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func rateRequest() *carrier.RateRequest {
	return &carrier.RateRequest{
		Origin:      carrier.Address{City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{City: "Abu Dhabi", CountryCode: "AE"},
		Package:     carrier.Package{Weight: 1.5},
	}
}

func TestAggregator_GetAllRates_SortedByCost(t *testing.T) {
	registry, clients := newTestRegistry(t, "alpha", "beta")
	clients["alpha"].RateCosts = []float64{40.00, 12.50}
	clients["beta"].RateCosts = []float64{22.00}

	agg := carrier.NewAggregator(registry, otelzap.New(zap.NewNop()))

	rates, err := agg.GetAllRates(context.Background(), rateRequest())

	require.NoError(t, err)
	require.Len(t, rates, 3)
	assert.True(t, sort.SliceIsSorted(rates, func(i, j int) bool {
		return rates[i].Cost.Amount < rates[j].Cost.Amount
	}))
	assert.Equal(t, 12.50, rates[0].Cost.Amount)
	assert.Equal(t, "alpha", rates[0].Provider.Name)
}

func TestAggregator_GetAllRates_ExcludesFailedCarrier(t *testing.T) {
	registry, clients := newTestRegistry(t, "alpha", "beta")
	clients["alpha"].FailRates = true
	clients["beta"].RateCosts = []float64{18.00}

	agg := carrier.NewAggregator(registry, otelzap.New(zap.NewNop()))

	rates, err := agg.GetAllRates(context.Background(), rateRequest())

	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "beta", rates[0].Provider.Name)
}

func TestAggregator_GetAllRates_SkipsUnhealthyCarrier(t *testing.T) {
	registry, clients := newTestRegistry(t, "alpha", "beta")
	clients["alpha"].Configured = false
	registry.PerformHealthChecks(context.Background())

	agg := carrier.NewAggregator(registry, otelzap.New(zap.NewNop()))

	rates, err := agg.GetAllRates(context.Background(), rateRequest())

	require.NoError(t, err)
	for _, r := range rates {
		assert.Equal(t, "beta", r.Provider.Name)
	}
}

func TestAggregator_GetAllRates_NoCarriers(t *testing.T) {
	registry, _ := newTestRegistry(t)
	agg := carrier.NewAggregator(registry, otelzap.New(zap.NewNop()))

	_, err := agg.GetAllRates(context.Background(), rateRequest())

	assert.ErrorIs(t, err, carrier.ErrCarrierNotFound)
}

func TestAggregator_GetRatesFrom_SurfacesError(t *testing.T) {
	registry, clients := newTestRegistry(t, "alpha")
	clients["alpha"].FailRates = true

	agg := carrier.NewAggregator(registry, otelzap.New(zap.NewNop()))

	_, err := agg.GetRatesFrom(context.Background(), "alpha", rateRequest())
	assert.Error(t, err)

	_, err = agg.GetRatesFrom(context.Background(), "missing", rateRequest())
	assert.ErrorIs(t, err, carrier.ErrCarrierNotFound)
}

func TestAggregator_CheapestRate(t *testing.T) {
	registry, clients := newTestRegistry(t, "alpha", "beta")
	clients["alpha"].RateCosts = []float64{25.00}
	clients["beta"].RateCosts = []float64{9.99}

	agg := carrier.NewAggregator(registry, otelzap.New(zap.NewNop()))

	rate, err := agg.CheapestRate(context.Background(), rateRequest())

	require.NoError(t, err)
	assert.Equal(t, 9.99, rate.Cost.Amount)
	assert.Equal(t, "beta", rate.Provider.Name)
}

func TestAggregator_CheapestRate_AllCarriersFailed(t *testing.T) {
	registry, clients := newTestRegistry(t, "alpha")
	clients["alpha"].FailRates = true

	agg := carrier.NewAggregator(registry, otelzap.New(zap.NewNop()))

	_, err := agg.CheapestRate(context.Background(), rateRequest())
	assert.ErrorIs(t, err, carrier.ErrCarrierUnavailable)
}

func TestAggregator_FastestRate(t *testing.T) {
	registry, clients := newTestRegistry(t, "alpha", "beta")
	clients["alpha"].RateCosts = []float64{10.00}
	clients["alpha"].RateDays = []int{7}
	clients["beta"].RateCosts = []float64{50.00}
	clients["beta"].RateDays = []int{1}

	agg := carrier.NewAggregator(registry, otelzap.New(zap.NewNop()))

	rate, err := agg.FastestRate(context.Background(), rateRequest())

	require.NoError(t, err)
	assert.Equal(t, "beta", rate.Provider.Name)
}

func TestAggregator_FastestRate_UnknownEstimateSortsLast(t *testing.T) {
	registry, clients := newTestRegistry(t, "alpha", "beta")
	clients["alpha"].RateCosts = []float64{5.00}
	clients["alpha"].RateDays = []int{0} // no estimate
	clients["beta"].RateCosts = []float64{80.00}
	clients["beta"].RateDays = []int{10}

	agg := carrier.NewAggregator(registry, otelzap.New(zap.NewNop()))

	rate, err := agg.FastestRate(context.Background(), rateRequest())

	require.NoError(t, err)
	assert.Equal(t, "beta", rate.Provider.Name)
}
