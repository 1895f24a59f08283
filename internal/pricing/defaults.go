package pricing

import (
	"github.com/shopspring/decimal"

	"infra-planner/pkg/api"
)

// baseMonthlyCost is the minimal-tier monthly cost per resource kind on AWS.
// Higher tiers and other providers are derived through fixed multipliers so
// the full table stays internally consistent.
var baseMonthlyCost = map[api.ResourceKind]decimal.Decimal{
	api.KindCompute:      decimal.NewFromInt(8),
	api.KindDatabase:     decimal.NewFromInt(15),
	api.KindLoadBalancer: decimal.NewFromInt(18),
	api.KindCache:        decimal.NewFromInt(12),
	api.KindStorage:      decimal.NewFromInt(5),
	api.KindQueue:        decimal.NewFromInt(4),
	api.KindGateway:      decimal.NewFromInt(6),
	api.KindAuth:         decimal.NewFromInt(5),
	api.KindCDN:          decimal.NewFromInt(10),
	api.KindMonitoring:   decimal.NewFromInt(7),
}

// tierMultiplier scales the minimal-tier rate up the sizing ladder.
var tierMultiplier = map[api.SizingTier]decimal.Decimal{
	api.TierMinimal:          decimal.NewFromInt(1),
	api.TierStandard:         decimal.NewFromFloat(2.5),
	api.TierScaled:           decimal.NewFromInt(6),
	api.TierHighAvailability: decimal.NewFromInt(12),
}

// providerFactor adjusts AWS list rates for the other providers.
var providerFactor = map[api.CloudProvider]decimal.Decimal{
	api.ProviderAWS:   decimal.NewFromInt(1),
	api.ProviderAzure: decimal.NewFromFloat(1.08),
	api.ProviderGCP:   decimal.NewFromFloat(0.96),
}

// DefaultRates materializes the built-in rate table: every provider × kind ×
// tier combination.
func DefaultRates() []Rate {
	kinds := api.AllResourceKinds()
	providers := []api.CloudProvider{api.ProviderAWS, api.ProviderAzure, api.ProviderGCP}
	tiers := []api.SizingTier{api.TierMinimal, api.TierStandard, api.TierScaled, api.TierHighAvailability}

	rates := make([]Rate, 0, len(kinds)*len(providers)*len(tiers))
	for _, provider := range providers {
		for _, kind := range kinds {
			for _, tier := range tiers {
				cost := baseMonthlyCost[kind].
					Mul(tierMultiplier[tier]).
					Mul(providerFactor[provider]).
					Round(2)
				rates = append(rates, Rate{
					Provider:    provider,
					Kind:        kind,
					Tier:        tier,
					MonthlyCost: cost,
				})
			}
		}
	}
	return rates
}

// DefaultCatalog builds the built-in catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultRates())
}
