package pricing

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"infra-planner/pkg/api"
	planerrors "infra-planner/pkg/errors"
)

// catalogFile is the YAML schema for rate overrides.
type catalogFile struct {
	Rates []rateEntry `yaml:"rates"`
}

type rateEntry struct {
	Provider    string `yaml:"provider"`
	Kind        string `yaml:"kind"`
	Tier        string `yaml:"tier"`
	MonthlyCost string `yaml:"monthly_cost"`
}

// LoadFile reads a YAML rate file and returns a catalog of the built-in
// defaults overlaid with the file's entries.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, planerrors.NewCatalogLoadError(path, err)
	}
	overrides, err := parseRates(data)
	if err != nil {
		return nil, planerrors.NewCatalogLoadError(path, err)
	}
	return NewCatalog(append(DefaultRates(), overrides...)), nil
}

func parseRates(data []byte) ([]Rate, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	rates := make([]Rate, 0, len(file.Rates))
	for i, entry := range file.Rates {
		provider, err := api.ParseCloudProvider(entry.Provider)
		if err != nil {
			return nil, fmt.Errorf("rate %d: %w", i, err)
		}
		kind, err := api.ParseResourceKind(entry.Kind)
		if err != nil {
			return nil, fmt.Errorf("rate %d: %w", i, err)
		}
		tier, err := api.ParseSizingTier(entry.Tier)
		if err != nil {
			return nil, fmt.Errorf("rate %d: %w", i, err)
		}
		cost, err := decimal.NewFromString(entry.MonthlyCost)
		if err != nil {
			return nil, fmt.Errorf("rate %d: invalid monthly_cost %q: %w", i, entry.MonthlyCost, err)
		}
		if cost.IsNegative() {
			return nil, fmt.Errorf("rate %d: monthly_cost must be non-negative", i)
		}
		rates = append(rates, Rate{Provider: provider, Kind: kind, Tier: tier, MonthlyCost: cost})
	}
	return rates, nil
}
