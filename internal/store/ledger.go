package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/platform/db"
	"github.com/servicehub/sparecrm/internal/shared"
)

func getStock(ctx context.Context, q db.Querier, spareID int64, loc location.Location, lock bool) (inventory.Stock, error) {
	query := `SELECT qty_good, qty_defective, qty_in_transit, updated_at
FROM spare_inventory
WHERE spare_id = $1 AND location_type = $2 AND location_id = $3`
	if lock {
		query += " FOR UPDATE"
	}
	stock := inventory.Stock{SpareID: spareID, Location: loc}
	err := q.QueryRow(ctx, query, spareID, loc.Kind.String(), loc.ID).
		Scan(&stock.QtyGood, &stock.QtyDefective, &stock.QtyInTransit, &stock.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return stock, inventory.ErrStockNotFound
	}
	if err != nil {
		return inventory.Stock{}, shared.Persistence("get stock", err)
	}
	return stock, nil
}

func (t *Tx) GetStockForUpdate(ctx context.Context, spareID int64, loc location.Location) (inventory.Stock, error) {
	return getStock(ctx, t.q, spareID, loc, true)
}

func (t *Tx) UpsertStock(ctx context.Context, stock inventory.Stock) error {
	_, err := t.q.Exec(ctx, `INSERT INTO spare_inventory (spare_id, location_type, location_id, qty_good, qty_defective, qty_in_transit, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (spare_id, location_type, location_id) DO UPDATE
SET qty_good = EXCLUDED.qty_good,
	qty_defective = EXCLUDED.qty_defective,
	qty_in_transit = EXCLUDED.qty_in_transit,
	updated_at = EXCLUDED.updated_at`,
		stock.SpareID, stock.Location.Kind.String(), stock.Location.ID,
		stock.QtyGood, stock.QtyDefective, stock.QtyInTransit, stock.UpdatedAt)
	if err != nil {
		if db.IsCheckViolation(err) {
			return &shared.InsufficientInventoryError{SpareID: stock.SpareID, Available: 0}
		}
		return shared.Persistence("upsert stock", err)
	}
	return nil
}
