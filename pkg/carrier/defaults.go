package carrier

import (
	"fmt"
	"math"
)

// internationalMultiplier scales default rates when origin and destination
// countries differ.
const internationalMultiplier = 2.5

// DefaultRates computes deterministic fallback rates from the carrier's
// pricing baseline: base fee + per-kg rate x weight, scaled for
// international shipments. Identical inputs always yield identical totals.
// Used when the live rate API is unreachable or unconfigured.
func DefaultRates(s Settings, req *RateRequest) []Rate {
	weight := req.Package.Weight
	if weight <= 0 {
		weight = 0.5
	}

	total := s.Pricing.BaseFee + s.Pricing.PerKgRate*weight
	if international(req) {
		total *= internationalMultiplier
	}
	total = roundFils(total)

	provider := ProviderInfo{Name: s.Name, DisplayName: s.DisplayName}

	rates := make([]Rate, 0, len(s.Services))
	for _, svc := range s.Services {
		if !svc.Active {
			continue
		}
		rates = append(rates, Rate{
			RateID:      fmt.Sprintf("%s-default-%s", s.Name, svc.Code),
			Provider:    provider,
			ServiceCode: svc.Code,
			ServiceName: svc.Name,
			Cost:        Money{Amount: total, Currency: s.Pricing.Currency},
			EstimatedDays: DayRange{
				Min: svc.DaysMin,
				Max: svc.DaysMax,
			},
			Features:  s.Features,
			IsDefault: true,
		})
	}
	return rates
}

func international(req *RateRequest) bool {
	o, d := req.Origin.CountryCode, req.Destination.CountryCode
	return o != "" && d != "" && o != d
}

// roundFils rounds to two decimal places.
func roundFils(v float64) float64 {
	return math.Round(v*100) / 100
}
