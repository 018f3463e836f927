// Package spares holds spare requests, their items and the spare part master.
package spares

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/shared"
)

// RequestType enumerates the supported spare movement intents.
type RequestType string

const (
	TypeTechIssue           RequestType = "TECH_ISSUE"
	TypeFillupDispatch      RequestType = "FILLUP_DISPATCH"
	TypeTechReturnDefective RequestType = "TECH_RETURN_DEFECTIVE"
	TypeTechReturnExcess    RequestType = "TECH_RETURN_EXCESS"
	TypeASCReturnDefective  RequestType = "ASC_RETURN_DEFECTIVE"
	TypeASCReturnExcess     RequestType = "ASC_RETURN_EXCESS"
	TypePlantTransfer       RequestType = "PLANT_TRANSFER"
)

// Status is the approval state of a request.
type Status string

const (
	StatusPending       Status = "pending"
	StatusApprovedByRSM Status = "approved_by_rsm"
	StatusRejectedByRSM Status = "rejected_by_rsm"
)

// Request is one spare movement intent.
type Request struct {
	ID          int64             `json:"id"`
	Type        RequestType       `json:"type"`
	Source      location.Location `json:"requested_source"`
	RequestedTo location.Location `json:"requested_to"`
	Status      Status            `json:"status"`
	CreatedBy   int64             `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Items       []Item            `json:"items"`
}

// Item is one line of a request. ApprovedQty stays nil until a decision.
type Item struct {
	ID              int64   `json:"id"`
	RequestID       int64   `json:"request_id"`
	SpareID         int64   `json:"spare_id"`
	RequestedQty    int64   `json:"requested_qty"`
	ApprovedQty     *int64  `json:"approved_qty"`
	RejectionReason *string `json:"rejection_reason"`
}

// Approved returns the approved quantity or zero when undecided.
func (i Item) Approved() int64 {
	if i.ApprovedQty == nil {
		return 0
	}
	return *i.ApprovedQty
}

// FindItem looks up an item by id.
func (r Request) FindItem(itemID int64) (Item, bool) {
	for _, it := range r.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return Item{}, false
}

// ItemBySpare looks up an item by spare id.
func (r Request) ItemBySpare(spareID int64) (Item, bool) {
	for _, it := range r.Items {
		if it.SpareID == spareID {
			return it, true
		}
	}
	return Item{}, false
}

// SparePart is master data used to price documents.
type SparePart struct {
	ID          int64
	PartNumber  string
	Description string
	HSN         string
	UnitPrice   decimal.NullDecimal
	GSTRate     decimal.Decimal
}

// ApprovalStatus is the outcome recorded in the approvals log.
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalHold     ApprovalStatus = "hold"
)

// EntityTypeSpareRequest tags approvals recorded against spare requests.
const EntityTypeSpareRequest = "spare_request"

// Approval is an append-only decision record.
type Approval struct {
	ID         int64
	EntityType string
	EntityID   int64
	Level      int
	ApproverID int64
	Status     ApprovalStatus
	Remarks    string
	ApprovedAt time.Time
}

var (
	// ErrRequestNotFound indicates the spare request does not exist.
	ErrRequestNotFound = fmt.Errorf("spare request %w", shared.ErrNotFound)
	// ErrItemNotFound indicates an item id outside the request.
	ErrItemNotFound = fmt.Errorf("spare request item %w", shared.ErrNotFound)
)
