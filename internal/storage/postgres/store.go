package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssetRow mirrors one supported-asset registry entry for persistence.
type AssetRow struct {
	Asset          string
	DepositCeiling string
	Strategy       string
	Position       int
}

// PriceSnapshot records one committed oracle price.
type PriceSnapshot struct {
	Price       string
	Supply      string
	RefreshedAt time.Time
}

// Store provides Postgres persistence for oracle snapshots and registry rows.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertSupportedAssets inserts or updates supported-asset rows.
func (s *Store) UpsertSupportedAssets(ctx context.Context, rows []AssetRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO supported_assets (
				asset, deposit_ceiling, strategy, position, created_at, updated_at
			) VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT (asset)
			DO UPDATE SET
				deposit_ceiling = EXCLUDED.deposit_ceiling,
				strategy = EXCLUDED.strategy,
				position = EXCLUDED.position,
				updated_at = now()
		`,
			row.Asset,
			row.DepositCeiling,
			row.Strategy,
			row.Position,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertPriceSnapshot appends a committed price.
func (s *Store) InsertPriceSnapshot(ctx context.Context, snap PriceSnapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO oracle_prices (price, supply, refreshed_at, created_at)
		VALUES ($1, $2, $3, now())
	`, snap.Price, snap.Supply, snap.RefreshedAt)
	return err
}

// LoadState returns last_refreshed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts uint64
	row := s.pool.QueryRow(ctx, `SELECT last_refreshed_ts FROM refresher_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return ts, true, nil
}

// SaveState upserts last_refreshed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresher_state (name, last_refreshed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_refreshed_ts = EXCLUDED.last_refreshed_ts, updated_at = now()
	`, name, ts)
	return err
}
