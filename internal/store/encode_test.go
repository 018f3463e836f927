package store

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/spares"
)

// requireEncodes binds args against the column types declared in
// migrations/0001_spares.up.sql, in both wire formats.
func requireEncodes(t *testing.T, columns []string, oids []uint32, args []any) {
	t.Helper()
	require.Len(t, args, len(oids))
	m := pgtype.NewMap()
	for i, arg := range args {
		for _, format := range []int16{pgtype.TextFormatCode, pgtype.BinaryFormatCode} {
			_, err := m.Encode(oids[i], format, arg, nil)
			require.NoErrorf(t, err, "column %s (format %d) with %T", columns[i], format, arg)
		}
	}
}

func TestApprovalArgsEncodeIntoApprovalsColumns(t *testing.T) {
	a := spares.Approval{
		EntityType: spares.EntityTypeSpareRequest,
		EntityID:   42,
		Level:      1,
		ApproverID: 10,
		Status:     spares.ApprovalApproved,
		Remarks:    "ok",
		ApprovedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	requireEncodes(t,
		[]string{"entity_type", "entity_id", "approval_level", "approver_user_id", "approval_status", "approval_remarks", "approved_at"},
		[]uint32{pgtype.TextOID, pgtype.Int8OID, pgtype.Int4OID, pgtype.Int8OID, pgtype.TextOID, pgtype.TextOID, pgtype.TimestamptzOID},
		approvalArgs(a))
}

func TestIntLevelDoesNotEncodeAsText(t *testing.T) {
	m := pgtype.NewMap()
	_, err := m.Encode(pgtype.TextOID, pgtype.BinaryFormatCode, 1, nil)
	require.Error(t, err)
}

func TestRequestArgsEncodeIntoSpareRequestsColumns(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	req := spares.Request{
		Type:        spares.TypeFillupDispatch,
		Source:      location.Must(location.ServiceCenter, 7),
		RequestedTo: location.Must(location.Plant, 3),
		Status:      spares.StatusPending,
		CreatedBy:   11,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	requireEncodes(t,
		[]string{"spare_request_type", "requested_source_type", "requested_source_id", "requested_to_type",
			"requested_to_id", "status_id", "created_by", "created_at", "updated_at"},
		[]uint32{pgtype.TextOID, pgtype.TextOID, pgtype.Int8OID, pgtype.TextOID,
			pgtype.Int8OID, pgtype.Int8OID, pgtype.Int8OID, pgtype.TimestamptzOID, pgtype.TimestamptzOID},
		requestArgs(req, 1))
}

func TestMovementArgsEncodeIntoStockMovementsColumns(t *testing.T) {
	m := movement.Movement{
		Type:            movement.TypeFillupDispatch,
		ReferenceType:   "spare_request",
		ReferenceNo:     "SR-42-DISPATCH",
		Source:          location.Must(location.Plant, 3),
		Destination:     location.Must(location.ServiceCenter, 7),
		TotalQty:        6,
		Status:          movement.StatusPending,
		Bucket:          movement.BucketGood,
		BucketOperation: movement.OperationDecrease,
		CreatedBy:       10,
		CreatedAt:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	requireEncodes(t,
		[]string{"stock_movement_type", "reference_type", "reference_no", "source_location_type", "source_location_id",
			"destination_location_type", "destination_location_id", "total_qty", "status", "bucket",
			"bucket_operation", "created_by", "created_at"},
		[]uint32{pgtype.TextOID, pgtype.TextOID, pgtype.TextOID, pgtype.TextOID, pgtype.Int8OID,
			pgtype.TextOID, pgtype.Int8OID, pgtype.Int8OID, pgtype.TextOID, pgtype.TextOID,
			pgtype.TextOID, pgtype.Int8OID, pgtype.TimestamptzOID},
		movementArgs(m))
}
