// Package ingestion refreshes the pricing catalog from the AWS Pricing API.
// A sync fetches current on-demand rates for the machine shapes the planner
// sizes with, folds them into the default rate set, and persists the result
// as a new active catalog snapshot.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awspricing "github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"infra-planner/db/clickhouse"
	"infra-planner/internal/pricing"
	"infra-planner/pkg/api"
)

// SourceAWSPricingAPI labels snapshots produced by this syncer.
const SourceAWSPricingAPI = "aws-pricing-api"

// The Pricing API is only served from these regions.
const pricingAPIRegion = "us-east-1"

var hoursPerMonth = decimal.NewFromInt(730)

// instanceTypeForTier is the EC2 shape whose on-demand rate prices each
// compute tier.
var instanceTypeForTier = map[api.SizingTier]string{
	api.TierMinimal:          "t3.micro",
	api.TierStandard:         "t3.medium",
	api.TierScaled:           "m5.large",
	api.TierHighAvailability: "m5.2xlarge",
}

// dbInstanceClassForTier is the RDS class whose on-demand rate prices each
// database tier.
var dbInstanceClassForTier = map[api.SizingTier]string{
	api.TierMinimal:          "db.t3.micro",
	api.TierStandard:         "db.t3.medium",
	api.TierScaled:           "db.m5.large",
	api.TierHighAvailability: "db.m5.2xlarge",
}

// ProductsClient is the slice of the AWS Pricing API the syncer uses.
type ProductsClient interface {
	GetProducts(ctx context.Context, params *awspricing.GetProductsInput, optFns ...func(*awspricing.Options)) (*awspricing.GetProductsOutput, error)
}

// Syncer fetches live rates and persists catalog snapshots.
type Syncer struct {
	client ProductsClient
	store  *clickhouse.Store
	logger *slog.Logger
}

// NewSyncer creates a syncer with an already configured Pricing API client.
func NewSyncer(client ProductsClient, store *clickhouse.Store, logger *slog.Logger) *Syncer {
	return &Syncer{client: client, store: store, logger: logger}
}

// NewSyncerFromEnv creates a syncer using ambient AWS credentials.
func NewSyncerFromEnv(ctx context.Context, store *clickhouse.Store, logger *slog.Logger) (*Syncer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(pricingAPIRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSyncer(awspricing.NewFromConfig(cfg), store, logger), nil
}

// SyncResult summarizes one catalog sync.
type SyncResult struct {
	SnapshotID  uuid.UUID
	RateCount   int
	LiveUpdates int
	Duration    time.Duration
}

// Sync fetches current AWS compute and database rates, merges them over the
// default rate set, and saves plus activates the snapshot. Kinds the Pricing
// API does not cover keep their default rates.
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	start := time.Now()

	live := make(map[string]decimal.Decimal)
	for tier, instanceType := range instanceTypeForTier {
		monthly, err := s.fetchOnDemandMonthly(ctx, "AmazonEC2", "instanceType", instanceType)
		if err != nil {
			s.logger.Warn("live rate unavailable, keeping default",
				"kind", string(api.KindCompute), "tier", tier.String(), "error", err)
			continue
		}
		live[rateKey(api.KindCompute, tier)] = monthly
	}
	for tier, class := range dbInstanceClassForTier {
		monthly, err := s.fetchOnDemandMonthly(ctx, "AmazonRDS", "instanceType", class)
		if err != nil {
			s.logger.Warn("live rate unavailable, keeping default",
				"kind", string(api.KindDatabase), "tier", tier.String(), "error", err)
			continue
		}
		live[rateKey(api.KindDatabase, tier)] = monthly
	}

	rates := pricing.DefaultRates()
	updated := 0
	for i, rate := range rates {
		if rate.Provider != api.ProviderAWS {
			continue
		}
		if monthly, ok := live[rateKey(rate.Kind, rate.Tier)]; ok {
			rates[i].MonthlyCost = monthly
			updated++
		}
	}

	snapshot, err := s.store.SaveSnapshot(ctx, SourceAWSPricingAPI, rates)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	if err := s.store.ActivateSnapshot(ctx, snapshot.ID); err != nil {
		return nil, fmt.Errorf("failed to activate snapshot: %w", err)
	}

	result := &SyncResult{
		SnapshotID:  snapshot.ID,
		RateCount:   len(rates),
		LiveUpdates: updated,
		Duration:    time.Since(start),
	}
	s.logger.Info("catalog sync complete",
		"snapshot_id", result.SnapshotID.String(),
		"rates", result.RateCount,
		"live_updates", result.LiveUpdates,
		"duration", result.Duration.String(),
	)
	return result, nil
}

// fetchOnDemandMonthly resolves the on-demand hourly rate for one product and
// converts it to a monthly cost.
func (s *Syncer) fetchOnDemandMonthly(ctx context.Context, serviceCode, field, value string) (decimal.Decimal, error) {
	filters := []types.Filter{
		{Type: types.FilterTypeTermMatch, Field: aws.String(field), Value: aws.String(value)},
		{Type: types.FilterTypeTermMatch, Field: aws.String("location"), Value: aws.String("US East (N. Virginia)")},
	}
	if serviceCode == "AmazonEC2" {
		filters = append(filters,
			types.Filter{Type: types.FilterTypeTermMatch, Field: aws.String("operatingSystem"), Value: aws.String("Linux")},
			types.Filter{Type: types.FilterTypeTermMatch, Field: aws.String("tenancy"), Value: aws.String("Shared")},
		)
	}
	out, err := s.client.GetProducts(ctx, &awspricing.GetProductsInput{
		ServiceCode: aws.String(serviceCode),
		Filters:     filters,
		MaxResults:  aws.Int32(1),
	})
	if err != nil {
		return decimal.Zero, err
	}
	if len(out.PriceList) == 0 {
		return decimal.Zero, fmt.Errorf("no products for %s %s=%s", serviceCode, field, value)
	}

	hourly, err := extractOnDemandUSD(out.PriceList[0])
	if err != nil {
		return decimal.Zero, err
	}
	return hourly.Mul(hoursPerMonth).Round(2), nil
}

// extractOnDemandUSD digs the USD per-unit price out of a Pricing API price
// list document.
func extractOnDemandUSD(doc string) (decimal.Decimal, error) {
	var parsed struct {
		Terms struct {
			OnDemand map[string]struct {
				PriceDimensions map[string]struct {
					PricePerUnit map[string]string `json:"pricePerUnit"`
				} `json:"priceDimensions"`
			} `json:"OnDemand"`
		} `json:"terms"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse price document: %w", err)
	}

	for _, term := range parsed.Terms.OnDemand {
		for _, dim := range term.PriceDimensions {
			usd, ok := dim.PricePerUnit["USD"]
			if !ok {
				continue
			}
			price, err := decimal.NewFromString(usd)
			if err != nil {
				return decimal.Zero, fmt.Errorf("bad USD price %q: %w", usd, err)
			}
			if price.IsPositive() {
				return price, nil
			}
		}
	}
	return decimal.Zero, fmt.Errorf("no positive USD on-demand price in document")
}

func rateKey(kind api.ResourceKind, tier api.SizingTier) string {
	return string(kind) + "/" + tier.String()
}
