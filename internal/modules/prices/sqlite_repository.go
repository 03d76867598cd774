package prices

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/pricecast/internal/database"
	"github.com/aristath/pricecast/internal/domain"
	"github.com/rs/zerolog"
)

// SQLiteRepository reads and writes the price_points table
type SQLiteRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSQLiteRepository creates a new price repository over an open SQLite connection
func NewSQLiteRepository(db *sql.DB, log zerolog.Logger) *SQLiteRepository {
	return &SQLiteRepository{
		db:  db,
		log: log.With().Str("component", "price_repository").Logger(),
	}
}

var _ Store = (*SQLiteRepository)(nil)

// Find returns price samples matching the query
func (r *SQLiteRepository) Find(ctx context.Context, q Query) ([]domain.PricePoint, error) {
	var (
		where []string
		args  []interface{}
	)
	if q.AssetID != "" {
		where = append(where, "asset_id = ?")
		args = append(args, q.AssetID)
	}
	if !q.From.IsZero() {
		where = append(where, "observed_at >= ?")
		args = append(args, q.From.UnixMilli())
	}
	if !q.To.IsZero() {
		where = append(where, "observed_at <= ?")
		args = append(args, q.To.UnixMilli())
	}

	query := "SELECT asset_id, name, price, market_cap, observed_at FROM price_points"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY asset_id, observed_at, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price points: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var (
			p          domain.PricePoint
			marketCap  sql.NullFloat64
			observedAt int64
		)
		if err := rows.Scan(&p.AssetID, &p.Name, &p.Price, &marketCap, &observedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		if marketCap.Valid {
			p.MarketCap = domain.Float(marketCap.Float64)
		}
		p.ObservedAt = time.UnixMilli(observedAt).UTC()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price points: %w", err)
	}

	return points, nil
}

// Assets returns the distinct asset ids present in the store, sorted
func (r *SQLiteRepository) Assets(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT asset_id FROM price_points ORDER BY asset_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var asset string
		if err := rows.Scan(&asset); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// Insert appends price samples in a single transaction
func (r *SQLiteRepository) Insert(ctx context.Context, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO price_points (asset_id, name, price, market_cap, observed_at)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			var marketCap interface{}
			if p.MarketCap != nil {
				marketCap = *p.MarketCap
			}
			if _, err := stmt.ExecContext(ctx, p.AssetID, p.Name, p.Price, marketCap, p.ObservedAt.UnixMilli()); err != nil {
				return fmt.Errorf("failed to insert price point for %s: %w", p.AssetID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Debug().Int("count", len(points)).Msg("Inserted price points")
	return nil
}
