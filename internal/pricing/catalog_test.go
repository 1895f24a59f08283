package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infra-planner/pkg/api"
	planerrors "infra-planner/pkg/errors"
)

func TestDefaultCatalogCoversEveryShape(t *testing.T) {
	catalog := DefaultCatalog()
	assert.Equal(t, 3*10*4, catalog.Size())

	providers := []api.CloudProvider{api.ProviderAWS, api.ProviderAzure, api.ProviderGCP}
	for _, provider := range providers {
		for _, kind := range api.AllResourceKinds() {
			for tier := api.TierMinimal; tier < api.TierCount; tier++ {
				cost, err := catalog.MonthlyCost(provider, kind, tier)
				require.NoError(t, err, "%s/%s@%s", provider, kind, tier)
				assert.True(t, cost.IsPositive(), "%s/%s@%s must cost something", provider, kind, tier)
			}
		}
	}
}

func TestDefaultRatesRiseWithTier(t *testing.T) {
	catalog := DefaultCatalog()
	for _, kind := range api.AllResourceKinds() {
		prev := decimal.Zero
		for tier := api.TierMinimal; tier < api.TierCount; tier++ {
			cost, err := catalog.MonthlyCost(api.ProviderAWS, kind, tier)
			require.NoError(t, err)
			assert.True(t, cost.GreaterThan(prev),
				"%s at %s should cost more than the tier below", kind, tier)
			prev = cost
		}
	}
}

func TestMonthlyCostFallsBackToAWS(t *testing.T) {
	catalog := NewCatalog([]Rate{
		{Provider: api.ProviderAWS, Kind: api.KindCompute, Tier: api.TierMinimal, MonthlyCost: decimal.NewFromInt(8)},
	})

	cost, err := catalog.MonthlyCost(api.ProviderGCP, api.KindCompute, api.TierMinimal)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(8)))

	_, err = catalog.MonthlyCost(api.ProviderGCP, api.KindDatabase, api.TierMinimal)
	var planErr *planerrors.PlanError
	require.ErrorAs(t, err, &planErr)
	assert.Equal(t, planerrors.ErrCodePriceNotFound, planErr.Code)
}

func TestNewCatalogLaterEntriesOverride(t *testing.T) {
	catalog := NewCatalog([]Rate{
		{Provider: api.ProviderAWS, Kind: api.KindCompute, Tier: api.TierMinimal, MonthlyCost: decimal.NewFromInt(8)},
		{Provider: api.ProviderAWS, Kind: api.KindCompute, Tier: api.TierMinimal, MonthlyCost: decimal.NewFromInt(11)},
	})

	cost, err := catalog.MonthlyCost(api.ProviderAWS, api.KindCompute, api.TierMinimal)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(11)))
}

func TestHolderSwap(t *testing.T) {
	holder := NewHolder(DefaultCatalog())
	first := holder.Catalog()

	replacement := NewCatalog([]Rate{
		{Provider: api.ProviderAWS, Kind: api.KindCompute, Tier: api.TierMinimal, MonthlyCost: decimal.NewFromInt(9)},
	})
	holder.Swap(replacement)

	assert.NotSame(t, first, holder.Catalog())
	assert.Equal(t, 1, holder.Catalog().Size())
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	content := `
rates:
  - provider: aws
    kind: compute
    tier: minimal
    monthly_cost: "9.50"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	catalog, err := LoadFile(path)
	require.NoError(t, err)

	// Overridden entry.
	cost, err := catalog.MonthlyCost(api.ProviderAWS, api.KindCompute, api.TierMinimal)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.RequireFromString("9.50")))

	// Untouched default.
	cost, err = catalog.MonthlyCost(api.ProviderAWS, api.KindDatabase, api.TierMinimal)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(15)))
}

func TestParseRatesRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown provider", "rates:\n  - {provider: ibm, kind: compute, tier: minimal, monthly_cost: \"1\"}\n"},
		{"unknown kind", "rates:\n  - {provider: aws, kind: mainframe, tier: minimal, monthly_cost: \"1\"}\n"},
		{"unknown tier", "rates:\n  - {provider: aws, kind: compute, tier: huge, monthly_cost: \"1\"}\n"},
		{"negative cost", "rates:\n  - {provider: aws, kind: compute, tier: minimal, monthly_cost: \"-1\"}\n"},
		{"garbage cost", "rates:\n  - {provider: aws, kind: compute, tier: minimal, monthly_cost: \"cheap\"}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRates([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
