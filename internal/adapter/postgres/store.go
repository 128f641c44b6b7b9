// Package postgres persists normalized rows for downstream analysis queries.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/agridata/quickstats-etl/internal/domain"
)

// schema holds one row per (region_id, year); reloading the same query is an
// idempotent upsert, so replays are safe.
const schema = `
CREATE TABLE IF NOT EXISTS county_irrigation (
	region_id         TEXT             NOT NULL,
	state_fips_code   TEXT             NOT NULL,
	county_code       TEXT             NOT NULL,
	county_name       TEXT             NOT NULL,
	year              INTEGER          NOT NULL,
	irrigated_acres   DOUBLE PRECISION NOT NULL,
	total_acres       DOUBLE PRECISION NOT NULL,
	percent_irrigated DOUBLE PRECISION NOT NULL,
	processed_at      TIMESTAMPTZ      NOT NULL,
	PRIMARY KEY (region_id, year)
)`

const upsertRow = `
INSERT INTO county_irrigation (
	region_id, state_fips_code, county_code, county_name, year,
	irrigated_acres, total_acres, percent_irrigated, processed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (region_id, year) DO UPDATE SET
	county_name       = EXCLUDED.county_name,
	irrigated_acres   = EXCLUDED.irrigated_acres,
	total_acres       = EXCLUDED.total_acres,
	percent_irrigated = EXCLUDED.percent_irrigated,
	processed_at      = EXCLUDED.processed_at`

// Store writes normalized rows to Postgres. It implements pipeline.Loader.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore connects to Postgres and ensures the county_irrigation table exists.
func NewStore(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Load upserts all rows in one transaction so a partially applied batch never
// becomes visible.
func (s *Store) Load(ctx context.Context, rows []domain.CountyIrrigation) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, upsertRow,
			row.RegionID, row.StateFIPS, row.CountyCode, row.CountyName, row.Year,
			row.IrrigatedAcres, row.TotalAcres, row.PercentIrrigated, row.ProcessedAt,
		); err != nil {
			return fmt.Errorf("upsert row %s/%d: %w", row.RegionID, row.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("rows persisted", "count", len(rows))
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
