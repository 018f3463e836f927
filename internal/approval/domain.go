// Package approval is the RSM decision workflow for spare requests.
package approval

import (
	"context"
	"time"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/logistics"
	"github.com/servicehub/sparecrm/internal/shared"
	"github.com/servicehub/sparecrm/internal/spares"
)

// ItemDecision is the approver's proposed quantity for one item.
type ItemDecision struct {
	ItemID      int64 `json:"item_id" validate:"required,gt=0"`
	ApprovedQty int64 `json:"approved_qty" validate:"gte=0"`
}

// ApproveInput describes an approval.
type ApproveInput struct {
	RequestID int64            `json:"-" validate:"required,gt=0"`
	Approver  shared.Principal `json:"-"`
	Items     []ItemDecision   `json:"items" validate:"required,min=1,dive"`
	Remarks   string           `json:"remarks" validate:"max=500"`
}

// RejectInput describes a rejection.
type RejectInput struct {
	RequestID int64            `json:"-" validate:"required,gt=0"`
	Approver  shared.Principal `json:"-"`
	Reason    string           `json:"reason" validate:"required,max=500"`
}

// ItemResult reports the figures behind one item decision.
type ItemResult struct {
	ItemID          int64 `json:"item_id"`
	SpareID         int64 `json:"spare_id"`
	Requested       int64 `json:"requested"`
	Proposed        int64 `json:"proposed"`
	Approved        int64 `json:"approved"`
	AvailableBefore int64 `json:"available_before"`
	AvailableAfter  int64 `json:"available_after"`
}

// Result is returned by Approve and Reject.
type Result struct {
	RequestID    int64             `json:"request_id"`
	Status       spares.Status     `json:"status"`
	Fulfiller    location.Location `json:"fulfilling_location"`
	DeliveryNote string            `json:"delivery_note,omitempty"`
	MovementID   int64             `json:"movement_id,omitempty"`
	Items        []ItemResult      `json:"items"`
	Documents    *logistics.Bundle `json:"documents,omitempty"`
}

// Authorizer decides whether a principal may approve for a location.
type Authorizer interface {
	AuthorizeApproval(ctx context.Context, p shared.Principal, target location.Location) error
}

// Locker guards one decision at a time per request across instances.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier announces dispatched delivery notes.
type Notifier interface {
	NotifyDeliveryNotePosted(ctx context.Context, requestID int64, deliveryNote string, movementID, totalQty int64) error
}

// Metrics records decision outcomes.
type Metrics interface {
	RecordDecision(decision, outcome string)
	AddApprovedUnits(n int64)
}
