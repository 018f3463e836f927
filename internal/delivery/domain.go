// Package delivery records physical receipt of dispatched spares.
package delivery

import (
	"context"

	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/logistics"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/shared"
)

// IdempotencyModule scopes reception keys in the idempotency store.
const IdempotencyModule = "reception"

// ReceiveItem is one received spare line.
type ReceiveItem struct {
	SpareID      int64              `json:"spare_id" validate:"required,gt=0"`
	Qty          int64              `json:"qty" validate:"required,gt=0"`
	CartonNumber string             `json:"carton_number" validate:"max=64"`
	Condition    movement.Condition `json:"condition" validate:"omitempty,oneof=good defective"`
}

// ReceiveInput describes a physical receipt against a request.
type ReceiveInput struct {
	RequestID         int64                  `json:"-" validate:"required,gt=0"`
	DocumentType      logistics.DocumentType `json:"document_type"`
	DocumentNumber    string                 `json:"document_number" validate:"max=64"`
	ReceivingLocation location.Location      `json:"receiving_location"`
	Items             []ReceiveItem          `json:"items" validate:"required,min=1,dive"`
	UserID            int64                  `json:"-"`
	IdempotencyKey    string                 `json:"-"`
}

// Result reports the completed movement and any ledger change made now.
type Result struct {
	RequestID      int64             `json:"request_id"`
	DocumentNumber string            `json:"document_number"`
	Movement       movement.Movement `json:"movement"`
	Created        bool              `json:"created"`
	InventoryDelta []inventory.Delta `json:"inventory_delta"`
}

// IdempotencyPort claims and releases request keys.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics records reception outcomes.
type Metrics interface {
	RecordReception(outcome string, created bool)
}
