// Package pricing provides the static resource pricing catalog used by the
// topology planner. The catalog is pure reference data: it is built once at
// process start and treated as immutable for its lifetime. Hot reload swaps
// a complete replacement snapshot through a Holder so in-flight planning
// always observes one consistent version.
package pricing

import (
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"infra-planner/pkg/api"
	planerrors "infra-planner/pkg/errors"
)

// Rate is one catalog entry: the monthly cost of a resource kind at a sizing
// tier on a provider.
type Rate struct {
	Provider    api.CloudProvider
	Kind        api.ResourceKind
	Tier        api.SizingTier
	MonthlyCost decimal.Decimal
}

type rateKey struct {
	provider api.CloudProvider
	kind     api.ResourceKind
	tier     api.SizingTier
}

// Catalog is an immutable price lookup table.
type Catalog struct {
	rates map[rateKey]decimal.Decimal
}

// NewCatalog builds a catalog from rates. Later entries override earlier ones
// for the same key, so callers can layer overrides on top of defaults.
func NewCatalog(rates []Rate) *Catalog {
	c := &Catalog{rates: make(map[rateKey]decimal.Decimal, len(rates))}
	for _, r := range rates {
		c.rates[rateKey{provider: r.Provider, kind: r.Kind, tier: r.Tier}] = r.MonthlyCost
	}
	return c
}

// MonthlyCost resolves the monthly cost for a node shape. Providers without
// a dedicated entry fall back to the AWS rate, mirroring the planner's AWS
// default for unspecified providers.
func (c *Catalog) MonthlyCost(provider api.CloudProvider, kind api.ResourceKind, tier api.SizingTier) (decimal.Decimal, error) {
	if cost, ok := c.rates[rateKey{provider: provider, kind: kind, tier: tier}]; ok {
		return cost, nil
	}
	if cost, ok := c.rates[rateKey{provider: api.ProviderAWS, kind: kind, tier: tier}]; ok {
		return cost, nil
	}
	return decimal.Zero, planerrors.NewPriceNotFoundError(string(provider), string(kind), tier.String())
}

// Size returns the number of entries in the catalog.
func (c *Catalog) Size() int {
	return len(c.rates)
}

// Holder publishes the current catalog snapshot. Swap installs a replacement
// atomically; readers never see a partially updated table.
type Holder struct {
	current atomic.Pointer[Catalog]
}

// NewHolder creates a holder seeded with an initial catalog.
func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.current.Store(c)
	return h
}

// Catalog returns the current snapshot.
func (h *Holder) Catalog() *Catalog {
	return h.current.Load()
}

// Swap atomically installs a new snapshot.
func (h *Holder) Swap(c *Catalog) {
	h.current.Store(c)
}

func (r Rate) String() string {
	return fmt.Sprintf("%s/%s@%s=$%s", r.Provider, r.Kind, r.Tier, r.MonthlyCost.StringFixed(2))
}
