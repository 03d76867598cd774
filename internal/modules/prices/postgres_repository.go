package prices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/pricecast/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS price_points (
    id BIGSERIAL PRIMARY KEY,
    asset_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    price DOUBLE PRECISION NOT NULL,
    market_cap DOUBLE PRECISION,
    observed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_points_asset_time ON price_points(asset_id, observed_at);
`

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// PostgresRepository serves price samples from a Postgres price_points table
type PostgresRepository struct {
	pool *Pool
	log  zerolog.Logger
}

// NewPostgresRepository creates a new Postgres-backed price repository
func NewPostgresRepository(pool *Pool, log zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
		log:  log.With().Str("component", "price_repository").Str("backend", "postgres").Logger(),
	}
}

var _ Store = (*PostgresRepository)(nil)

// EnsureSchema creates the price_points table if it does not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create price schema: %w", err)
	}
	return nil
}

// Find returns price samples matching the query
func (r *PostgresRepository) Find(ctx context.Context, q Query) ([]domain.PricePoint, error) {
	var (
		where []string
		args  []interface{}
	)
	if q.AssetID != "" {
		args = append(args, q.AssetID)
		where = append(where, fmt.Sprintf("asset_id = $%d", len(args)))
	}
	if !q.From.IsZero() {
		args = append(args, q.From)
		where = append(where, fmt.Sprintf("observed_at >= $%d", len(args)))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		where = append(where, fmt.Sprintf("observed_at <= $%d", len(args)))
	}

	query := "SELECT asset_id, name, price, market_cap, observed_at FROM price_points"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY asset_id, observed_at, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query price points: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var (
			p          domain.PricePoint
			observedAt time.Time
		)
		if err := rows.Scan(&p.AssetID, &p.Name, &p.Price, &p.MarketCap, &observedAt); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		p.ObservedAt = observedAt.UTC()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price points: %w", err)
	}

	return points, nil
}

// Assets returns the distinct asset ids present in the store, sorted
func (r *PostgresRepository) Assets(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT DISTINCT asset_id FROM price_points ORDER BY asset_id")
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Insert appends price samples atomically
func (r *PostgresRepository) Insert(ctx context.Context, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(`
			INSERT INTO price_points (asset_id, name, price, market_cap, observed_at)
			VALUES ($1, $2, $3, $4, $5)
		`, p.AssetID, p.Name, p.Price, p.MarketCap, p.ObservedAt)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert price points: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	r.log.Debug().Int("count", len(points)).Msg("Inserted price points")
	return nil
}
