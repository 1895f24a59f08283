// Package clickhouse persists pricing catalog snapshots. Each snapshot is a
// complete point-in-time set of planner rates; exactly one snapshot per
// source is active and the planner loads the active set at startup or on a
// pricing sync.
package clickhouse

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"infra-planner/internal/pricing"
	"infra-planner/pkg/api"
	"infra-planner/pkg/platform"
)

// CatalogSnapshot is a point-in-time capture of the full rate catalog.
type CatalogSnapshot struct {
	ID        uuid.UUID `ch:"id"`
	Source    string    `ch:"source"`
	FetchedAt time.Time `ch:"fetched_at"`
	Hash      string    `ch:"hash"`
	RateCount int       `ch:"rate_count"`
	IsActive  bool      `ch:"is_active"`
	CreatedAt time.Time `ch:"created_at"`
}

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     platform.GetEnv("CLICKHOUSE_HOST", "localhost"),
		Port:     platform.GetEnvInt("CLICKHOUSE_PORT", 9000),
		Database: platform.GetEnv("CLICKHOUSE_DATABASE", "infraplanner"),
		Username: platform.GetEnv("CLICKHOUSE_USER", "default"),
		Password: platform.GetEnv("CLICKHOUSE_PASSWORD", ""),
		Debug:    platform.GetEnvBool("CLICKHOUSE_DEBUG", false),
	}
}

// Store persists catalog snapshots in ClickHouse.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore creates a new ClickHouse catalog store.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// SaveSnapshot writes a snapshot header and its full rate set in one batch.
// When an identical snapshot (same content hash) already exists for the
// source, the existing snapshot is returned instead of writing a duplicate.
func (s *Store) SaveSnapshot(ctx context.Context, source string, rates []pricing.Rate) (*CatalogSnapshot, error) {
	hash := hashRates(rates)

	existing, err := s.findSnapshotByHash(ctx, source, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	snapshot := &CatalogSnapshot{
		ID:        uuid.New(),
		Source:    source,
		FetchedAt: time.Now(),
		Hash:      hash,
		RateCount: len(rates),
		CreatedAt: time.Now(),
	}

	headerQuery := `
		INSERT INTO catalog_snapshots (id, source, fetched_at, hash, rate_count, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if err := s.conn.Exec(ctx, headerQuery,
		snapshot.ID, snapshot.Source, snapshot.FetchedAt, snapshot.Hash,
		uint32(snapshot.RateCount), boolToUInt8(false), snapshot.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO catalog_rates (snapshot_id, provider, kind, tier, monthly_cost, created_at)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, rate := range rates {
		if err := batch.Append(
			snapshot.ID, string(rate.Provider), string(rate.Kind),
			rate.Tier.String(), rate.MonthlyCost, time.Now(),
		); err != nil {
			return nil, fmt.Errorf("failed to append rate: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return nil, fmt.Errorf("failed to write rates: %w", err)
	}

	return snapshot, nil
}

// ActivateSnapshot marks a snapshot as the active catalog for its source and
// deactivates any previously active snapshot.
func (s *Store) ActivateSnapshot(ctx context.Context, id uuid.UUID) error {
	snapshot, err := s.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return fmt.Errorf("snapshot not found: %s", id)
	}

	deactivateQuery := `
		INSERT INTO catalog_snapshots
		SELECT id, source, fetched_at, hash, rate_count, 0 as is_active, created_at,
			   _version + 1 as _version, _deleted
		FROM catalog_snapshots FINAL
		WHERE source = ? AND is_active = 1 AND _deleted = 0 AND id != ?
	`
	if err := s.conn.Exec(ctx, deactivateQuery, snapshot.Source, id); err != nil {
		return fmt.Errorf("failed to deactivate snapshots: %w", err)
	}

	activateQuery := `
		INSERT INTO catalog_snapshots
		SELECT id, source, fetched_at, hash, rate_count, 1 as is_active, created_at,
			   _version + 1 as _version, _deleted
		FROM catalog_snapshots FINAL
		WHERE id = ?
	`
	return s.conn.Exec(ctx, activateQuery, id)
}

// GetSnapshot retrieves a snapshot header by ID.
func (s *Store) GetSnapshot(ctx context.Context, id uuid.UUID) (*CatalogSnapshot, error) {
	query := `
		SELECT id, source, fetched_at, hash, rate_count, is_active, created_at
		FROM catalog_snapshots FINAL
		WHERE id = ? AND _deleted = 0
	`
	return s.scanSnapshot(s.conn.QueryRow(ctx, query, id))
}

// ActiveSnapshot retrieves the active snapshot header for a source.
func (s *Store) ActiveSnapshot(ctx context.Context, source string) (*CatalogSnapshot, error) {
	query := `
		SELECT id, source, fetched_at, hash, rate_count, is_active, created_at
		FROM catalog_snapshots FINAL
		WHERE source = ? AND is_active = 1 AND _deleted = 0
		LIMIT 1
	`
	return s.scanSnapshot(s.conn.QueryRow(ctx, query, source))
}

// ListSnapshots lists snapshot headers for a source, newest first.
func (s *Store) ListSnapshots(ctx context.Context, source string) ([]*CatalogSnapshot, error) {
	query := `
		SELECT id, source, fetched_at, hash, rate_count, is_active, created_at
		FROM catalog_snapshots FINAL
		WHERE source = ? AND _deleted = 0
		ORDER BY created_at DESC
	`
	rows, err := s.conn.Query(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*CatalogSnapshot
	for rows.Next() {
		var snapshot CatalogSnapshot
		var isActive uint8
		var rateCount uint32
		if err := rows.Scan(
			&snapshot.ID, &snapshot.Source, &snapshot.FetchedAt, &snapshot.Hash,
			&rateCount, &isActive, &snapshot.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshot.RateCount = int(rateCount)
		snapshot.IsActive = isActive == 1
		snapshots = append(snapshots, &snapshot)
	}
	return snapshots, nil
}

// LoadCatalog loads the rate set of the active snapshot for a source and
// materializes it as a planner catalog. Returns nil when no snapshot is
// active.
func (s *Store) LoadCatalog(ctx context.Context, source string) (*pricing.Catalog, error) {
	snapshot, err := s.ActiveSnapshot(ctx, source)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, nil
	}

	query := `
		SELECT provider, kind, tier, monthly_cost
		FROM catalog_rates FINAL
		WHERE snapshot_id = ? AND _deleted = 0
	`
	rows, err := s.conn.Query(ctx, query, snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rates: %w", err)
	}
	defer rows.Close()

	var rates []pricing.Rate
	for rows.Next() {
		var provider, kind, tier string
		var cost decimal.Decimal
		if err := rows.Scan(&provider, &kind, &tier, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		rate, err := parseRate(provider, kind, tier, cost)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	return pricing.NewCatalog(rates), nil
}

func (s *Store) findSnapshotByHash(ctx context.Context, source, hash string) (*CatalogSnapshot, error) {
	query := `
		SELECT id, source, fetched_at, hash, rate_count, is_active, created_at
		FROM catalog_snapshots FINAL
		WHERE source = ? AND hash = ? AND _deleted = 0
		LIMIT 1
	`
	return s.scanSnapshot(s.conn.QueryRow(ctx, query, source, hash))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSnapshot(row rowScanner) (*CatalogSnapshot, error) {
	var snapshot CatalogSnapshot
	var isActive uint8
	var rateCount uint32
	err := row.Scan(
		&snapshot.ID, &snapshot.Source, &snapshot.FetchedAt, &snapshot.Hash,
		&rateCount, &isActive, &snapshot.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	snapshot.RateCount = int(rateCount)
	snapshot.IsActive = isActive == 1
	return &snapshot, nil
}

func parseRate(provider, kind, tier string, cost decimal.Decimal) (pricing.Rate, error) {
	p, err := api.ParseCloudProvider(provider)
	if err != nil {
		return pricing.Rate{}, err
	}
	k, err := api.ParseResourceKind(kind)
	if err != nil {
		return pricing.Rate{}, err
	}
	t, err := api.ParseSizingTier(tier)
	if err != nil {
		return pricing.Rate{}, err
	}
	return pricing.Rate{Provider: p, Kind: k, Tier: t, MonthlyCost: cost}, nil
}

// hashRates produces a content hash over the sorted rate set so identical
// catalogs dedupe to one snapshot.
func hashRates(rates []pricing.Rate) string {
	lines := make([]string, 0, len(rates))
	for _, r := range rates {
		lines = append(lines, fmt.Sprintf("%s|%s|%s|%s", r.Provider, r.Kind, r.Tier, r.MonthlyCost.String()))
	}
	sort.Strings(lines)

	h := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(h[:])
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
