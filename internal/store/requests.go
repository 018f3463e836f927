package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/platform/db"
	"github.com/servicehub/sparecrm/internal/shared"
	"github.com/servicehub/sparecrm/internal/spares"
)

const selectRequest = `SELECT r.id, r.spare_request_type, r.requested_source_type, r.requested_source_id,
	r.requested_to_type, r.requested_to_id, s.name, r.created_by, r.created_at, r.updated_at
FROM spare_requests r
JOIN statuses s ON s.id = r.status_id
WHERE r.id = $1`

func getRequest(ctx context.Context, q db.Querier, id int64, lock bool) (spares.Request, error) {
	query := selectRequest
	if lock {
		query += " FOR UPDATE OF r"
	}
	var (
		req             spares.Request
		typ, status     string
		srcType, toType string
		srcID, toID     int64
	)
	err := q.QueryRow(ctx, query, id).Scan(&req.ID, &typ, &srcType, &srcID, &toType, &toID, &status,
		&req.CreatedBy, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return spares.Request{}, spares.ErrRequestNotFound
	}
	if err != nil {
		return spares.Request{}, shared.Persistence("get spare request", err)
	}
	req.Type = spares.RequestType(typ)
	req.Status = spares.Status(status)
	if req.Source, err = location.Parse(srcType, srcID); err != nil {
		return spares.Request{}, fmt.Errorf("spare request %d source: %w", id, err)
	}
	if req.RequestedTo, err = location.Parse(toType, toID); err != nil {
		return spares.Request{}, fmt.Errorf("spare request %d destination: %w", id, err)
	}

	rows, err := q.Query(ctx, `SELECT id, request_id, spare_id, requested_qty, approved_qty, rejection_reason
FROM spare_request_items WHERE request_id = $1 ORDER BY spare_id`, id)
	if err != nil {
		return spares.Request{}, shared.Persistence("list spare request items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it spares.Item
		if err := rows.Scan(&it.ID, &it.RequestID, &it.SpareID, &it.RequestedQty, &it.ApprovedQty, &it.RejectionReason); err != nil {
			return spares.Request{}, shared.Persistence("scan spare request item", err)
		}
		req.Items = append(req.Items, it)
	}
	if err := rows.Err(); err != nil {
		return spares.Request{}, shared.Persistence("iterate spare request items", err)
	}
	return req, nil
}

func (t *Tx) LockRequest(ctx context.Context, id int64) (spares.Request, error) {
	return getRequest(ctx, t.q, id, true)
}

func (t *Tx) ensureStatus(ctx context.Context, status spares.Status) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `INSERT INTO statuses (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`, string(status)).Scan(&id)
	if err != nil {
		return 0, shared.Persistence("ensure status", err)
	}
	return id, nil
}

func (t *Tx) InsertRequest(ctx context.Context, req spares.Request) (int64, error) {
	statusID, err := t.ensureStatus(ctx, req.Status)
	if err != nil {
		return 0, err
	}
	var id int64
	err = t.q.QueryRow(ctx, `INSERT INTO spare_requests (spare_request_type, requested_source_type, requested_source_id,
	requested_to_type, requested_to_id, status_id, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`, requestArgs(req, statusID)...).Scan(&id)
	if err != nil {
		return 0, shared.Persistence("insert spare request", err)
	}
	return id, nil
}

func requestArgs(req spares.Request, statusID int64) []any {
	return []any{string(req.Type), req.Source.Kind.String(), req.Source.ID,
		req.RequestedTo.Kind.String(), req.RequestedTo.ID, statusID, req.CreatedBy, req.CreatedAt, req.UpdatedAt}
}

func (t *Tx) InsertItem(ctx context.Context, item spares.Item) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `INSERT INTO spare_request_items (request_id, spare_id, requested_qty)
VALUES ($1, $2, $3) RETURNING id`, item.RequestID, item.SpareID, item.RequestedQty).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, shared.Validationf("spare %d requested twice", item.SpareID)
		}
		return 0, shared.Persistence("insert spare request item", err)
	}
	return id, nil
}

func (t *Tx) SetItemDecision(ctx context.Context, itemID, approvedQty int64, rejectionReason *string) error {
	tag, err := t.q.Exec(ctx, `UPDATE spare_request_items SET approved_qty = $2, rejection_reason = $3 WHERE id = $1`,
		itemID, approvedQty, rejectionReason)
	if err != nil {
		return shared.Persistence("set item decision", err)
	}
	if tag.RowsAffected() == 0 {
		return spares.ErrItemNotFound
	}
	return nil
}

func (t *Tx) UpdateRequestStatus(ctx context.Context, id int64, status spares.Status) error {
	statusID, err := t.ensureStatus(ctx, status)
	if err != nil {
		return err
	}
	tag, err := t.q.Exec(ctx, `UPDATE spare_requests SET status_id = $2, updated_at = NOW() WHERE id = $1`, id, statusID)
	if err != nil {
		return shared.Persistence("update request status", err)
	}
	if tag.RowsAffected() == 0 {
		return spares.ErrRequestNotFound
	}
	return nil
}

func (t *Tx) InsertApproval(ctx context.Context, a spares.Approval) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `INSERT INTO approvals (entity_type, entity_id, approval_level, approver_user_id,
	approval_status, approval_remarks, approved_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`, approvalArgs(a)...).Scan(&id)
	if err != nil {
		return 0, shared.Persistence("insert approval", err)
	}
	return id, nil
}

// approvalArgs binds in approvals column order.
func approvalArgs(a spares.Approval) []any {
	return []any{a.EntityType, a.EntityID, a.Level, a.ApproverID, string(a.Status), a.Remarks, a.ApprovedAt}
}

func (t *Tx) GetSpareParts(ctx context.Context, ids []int64) (map[int64]spares.SparePart, error) {
	rows, err := t.q.Query(ctx, `SELECT id, part_number, description, hsn, unit_price, gst_rate
FROM spare_parts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, shared.Persistence("list spare parts", err)
	}
	defer rows.Close()
	out := make(map[int64]spares.SparePart, len(ids))
	for rows.Next() {
		var p spares.SparePart
		if err := rows.Scan(&p.ID, &p.PartNumber, &p.Description, &p.HSN, &p.UnitPrice, &p.GSTRate); err != nil {
			return nil, shared.Persistence("scan spare part", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Persistence("iterate spare parts", err)
	}
	return out, nil
}
