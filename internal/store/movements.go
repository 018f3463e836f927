package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/shared"
)

func (t *Tx) InsertMovementIfAbsent(ctx context.Context, m movement.Movement) (int64, bool, error) {
	var id int64
	err := t.q.QueryRow(ctx, `INSERT INTO stock_movements (stock_movement_type, reference_type, reference_no,
	source_location_type, source_location_id, destination_location_type, destination_location_id,
	total_qty, status, bucket, bucket_operation, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (reference_no) DO NOTHING
RETURNING id`, movementArgs(m)...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, shared.Persistence("insert stock movement", err)
	}
	return id, true, nil
}

func movementArgs(m movement.Movement) []any {
	return []any{string(m.Type), m.ReferenceType, m.ReferenceNo,
		m.Source.Kind.String(), m.Source.ID, m.Destination.Kind.String(), m.Destination.ID,
		m.TotalQty, string(m.Status), string(m.Bucket), string(m.BucketOperation), m.CreatedBy, m.CreatedAt}
}

func (t *Tx) GetMovementByReferenceForUpdate(ctx context.Context, referenceNo string) (movement.Movement, error) {
	var (
		m                movement.Movement
		typ, status      string
		bucket, op       string
		srcType, dstType string
		srcID, dstID     int64
	)
	err := t.q.QueryRow(ctx, `SELECT id, stock_movement_type, reference_type, reference_no,
	source_location_type, source_location_id, destination_location_type, destination_location_id,
	total_qty, status, bucket, bucket_operation, created_by, created_at, verified_by, verified_at, received_date
FROM stock_movements WHERE reference_no = $1 FOR UPDATE`, referenceNo).Scan(
		&m.ID, &typ, &m.ReferenceType, &m.ReferenceNo,
		&srcType, &srcID, &dstType, &dstID,
		&m.TotalQty, &status, &bucket, &op, &m.CreatedBy, &m.CreatedAt, &m.VerifiedBy, &m.VerifiedAt, &m.ReceivedDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return movement.Movement{}, movement.ErrMovementNotFound
	}
	if err != nil {
		return movement.Movement{}, shared.Persistence("get stock movement", err)
	}
	m.Type = movement.Type(typ)
	m.Status = movement.Status(status)
	m.Bucket = movement.Bucket(bucket)
	m.BucketOperation = movement.Operation(op)
	if m.Source, err = location.Parse(srcType, srcID); err != nil {
		return movement.Movement{}, err
	}
	if m.Destination, err = location.Parse(dstType, dstID); err != nil {
		return movement.Movement{}, err
	}

	rows, err := t.q.Query(ctx, `SELECT id, stock_movement_id, carton_id, spare_id, qty, condition
FROM goods_movement_items WHERE stock_movement_id = $1 ORDER BY id`, m.ID)
	if err != nil {
		return movement.Movement{}, shared.Persistence("list goods movement items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it movement.GoodsItem
		var cond string
		if err := rows.Scan(&it.ID, &it.MovementID, &it.CartonID, &it.SpareID, &it.Qty, &cond); err != nil {
			return movement.Movement{}, shared.Persistence("scan goods movement item", err)
		}
		it.Condition = movement.Condition(cond)
		m.Items = append(m.Items, it)
	}
	if err := rows.Err(); err != nil {
		return movement.Movement{}, shared.Persistence("iterate goods movement items", err)
	}
	return m, nil
}

func (t *Tx) InsertCarton(ctx context.Context, c movement.Carton) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `INSERT INTO cartons (stock_movement_id, carton_number) VALUES ($1, $2) RETURNING id`,
		c.MovementID, c.CartonNumber).Scan(&id)
	if err != nil {
		return 0, shared.Persistence("insert carton", err)
	}
	return id, nil
}

func (t *Tx) InsertGoodsItem(ctx context.Context, item movement.GoodsItem) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `INSERT INTO goods_movement_items (stock_movement_id, carton_id, spare_id, qty, condition)
VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		item.MovementID, item.CartonID, item.SpareID, item.Qty, string(item.Condition)).Scan(&id)
	if err != nil {
		return 0, shared.Persistence("insert goods movement item", err)
	}
	return id, nil
}

func (t *Tx) CompleteMovement(ctx context.Context, id, verifiedBy int64, at time.Time) error {
	tag, err := t.q.Exec(ctx, `UPDATE stock_movements
SET status = $2, verified_by = $3, verified_at = $4, received_date = $4
WHERE id = $1`, id, string(movement.StatusCompleted), verifiedBy, at)
	if err != nil {
		return shared.Persistence("complete stock movement", err)
	}
	if tag.RowsAffected() == 0 {
		return movement.ErrMovementNotFound
	}
	return nil
}
