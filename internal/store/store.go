// Package store persists stock records between refreshes.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/seenimoa/stockbrief/internal/config"
	"github.com/seenimoa/stockbrief/pkg/models"
)

// ErrNotFound is returned by Get for an unknown symbol.
var ErrNotFound = errors.New("store: stock not found")

// Store is the persistence boundary for stock records. Save replaces the
// whole record for stock.Symbol.
type Store interface {
	Get(ctx context.Context, symbol string) (*models.Stock, error)
	Save(ctx context.Context, stock *models.Stock) error
	List(ctx context.Context) ([]*models.Stock, error)
}

// Open returns the store selected by cfg.Driver. For postgres the schema is
// migrated before returning; the caller owns the returned closer.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, func() error, error) {
	switch cfg.Driver {
	case config.StoreMemory, "":
		return NewMemoryStore(), func() error { return nil }, nil
	case config.StorePostgres:
		db, err := OpenDB(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		s := NewPostgresStore(db)
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return s, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// OpenDB opens a pgx-backed *sql.DB and verifies the connection.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("store: postgres DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return db, nil
}
