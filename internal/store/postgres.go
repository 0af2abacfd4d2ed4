package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/seenimoa/stockbrief/pkg/models"
)

// PostgresStore stores stocks in a single table keyed by symbol.
type PostgresStore struct{ db *sql.DB }

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the stocks table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS stocks (
    symbol        TEXT PRIMARY KEY,
    company_name  TEXT NOT NULL DEFAULT '',
    description   TEXT NOT NULL DEFAULT '',
    current_price DOUBLE PRECISION,
    market_cap    DOUBLE PRECISION,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return fmt.Errorf("Migrate: %w", err)
	}
	return nil
}

const selectStock = `
SELECT symbol, company_name, description, current_price, market_cap, updated_at
FROM stocks`

func (s *PostgresStore) Get(ctx context.Context, symbol string) (*models.Stock, error) {
	row := s.db.QueryRowContext(ctx, selectStock+`
WHERE symbol = $1`, symbol)

	stock, err := scanStock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return stock, nil
}

// Save upserts the record for stock.Symbol.
func (s *PostgresStore) Save(ctx context.Context, stock *models.Stock) error {
	const query = `
INSERT INTO stocks (symbol, company_name, description, current_price, market_cap, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (symbol) DO UPDATE SET
    company_name  = EXCLUDED.company_name,
    description   = EXCLUDED.description,
    current_price = EXCLUDED.current_price,
    market_cap    = EXCLUDED.market_cap,
    updated_at    = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, query,
		stock.Symbol, stock.CompanyName, stock.Description,
		stock.CurrentPrice, stock.MarketCap, stock.UpdatedAt,
	); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

// List returns all stocks ordered by symbol.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Stock, error) {
	rows, err := s.db.QueryContext(ctx, selectStock+`
ORDER BY symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stocks []*models.Stock
	for rows.Next() {
		stock, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		stocks = append(stocks, stock)
	}
	return stocks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStock(sc scanner) (*models.Stock, error) {
	var (
		stock       models.Stock
		price, mcap sql.NullFloat64
	)
	if err := sc.Scan(
		&stock.Symbol, &stock.CompanyName, &stock.Description,
		&price, &mcap, &stock.UpdatedAt,
	); err != nil {
		return nil, err
	}
	stock.CurrentPrice = price.Float64
	stock.MarketCap = mcap.Float64
	return &stock, nil
}
