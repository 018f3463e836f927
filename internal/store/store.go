// Package store implements every repository port on PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/platform/db"
	"github.com/servicehub/sparecrm/internal/shared"
	"github.com/servicehub/sparecrm/internal/spares"
)

// Store reads from the pool and opens transactions.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Tx wraps a pgx transaction and implements the transactional ports.
type Tx struct {
	q db.Querier
}

// WithTx executes fn inside a ReadCommitted transaction. Rows that must not
// race are read FOR UPDATE by the Tx methods.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, *Tx) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Tx{q: tx})
	})
}

// GetRequest loads a request and its items.
func (s *Store) GetRequest(ctx context.Context, id int64) (spares.Request, error) {
	return getRequest(ctx, s.pool, id, false)
}

// GetStock loads a ledger row without locking.
func (s *Store) GetStock(ctx context.Context, spareID int64, loc location.Location) (inventory.Stock, error) {
	return getStock(ctx, s.pool, spareID, loc, false)
}

// LookupPrincipal resolves a user and their assigned regions.
func (s *Store) LookupPrincipal(ctx context.Context, userID int64) (shared.Principal, error) {
	var p shared.Principal
	var role string
	err := s.pool.QueryRow(ctx, `SELECT u.id, u.role, COALESCE(array_agg(ur.region_id) FILTER (WHERE ur.region_id IS NOT NULL), '{}')
FROM users u
LEFT JOIN user_regions ur ON ur.user_id = u.id
WHERE u.id = $1 AND u.active
GROUP BY u.id, u.role`, userID).Scan(&p.UserID, &role, &p.RegionIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.Principal{}, fmt.Errorf("user %d %w", userID, shared.ErrNotFound)
	}
	if err != nil {
		return shared.Principal{}, shared.Persistence("lookup principal", err)
	}
	p.Role = shared.Role(role)
	return p, nil
}

// RegionOf returns the region a location is assigned to.
func (s *Store) RegionOf(ctx context.Context, loc location.Location) (int64, error) {
	var region int64
	err := s.pool.QueryRow(ctx, `SELECT region_id FROM location_regions WHERE location_type = $1 AND location_id = $2`,
		loc.Kind.String(), loc.ID).Scan(&region)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("region for %s %w", loc, shared.ErrNotFound)
	}
	if err != nil {
		return 0, shared.Persistence("region of location", err)
	}
	return region, nil
}

// Ping checks database connectivity for health probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
