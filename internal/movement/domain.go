// Package movement records immutable goods transfer events between locations.
package movement

import (
	"errors"
	"time"

	"github.com/servicehub/sparecrm/internal/location"
)

// Type describes the business intent of a movement.
type Type string

const (
	TypeTechIssueOut        Type = "TECH_ISSUE_OUT"
	TypeFillupDispatch      Type = "FILLUP_DISPATCH"
	TypeTechReturnDefective Type = "TECH_RETURN_DEFECTIVE"
	TypeTechReturnExcess    Type = "TECH_RETURN_EXCESS"
	TypeASCReturnDefective  Type = "ASC_RETURN_DEFECTIVE"
	TypeASCReturnExcess     Type = "ASC_RETURN_EXCESS"
	TypePlantTransfer       Type = "PLANT_TRANSFER"
	TypeAdjustment          Type = "ADJUSTMENT"
)

// Bucket names the ledger sub-quantity a movement affects.
type Bucket string

const (
	BucketGood      Bucket = "GOOD"
	BucketDefective Bucket = "DEFECTIVE"
)

// Valid reports whether b is a known bucket.
func (b Bucket) Valid() bool {
	return b == BucketGood || b == BucketDefective
}

// Operation is the direction applied to the bucket at the movement source.
type Operation string

const (
	OperationIncrease Operation = "INCREASE"
	OperationDecrease Operation = "DECREASE"
)

// Status tracks the movement lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Condition of the physical goods on a movement line.
type Condition string

const (
	ConditionGood      Condition = "good"
	ConditionDefective Condition = "defective"
)

// ConditionFor maps a bucket onto the goods condition it holds.
func ConditionFor(b Bucket) Condition {
	if b == BucketDefective {
		return ConditionDefective
	}
	return ConditionGood
}

// Movement is one goods transfer event. ReferenceNo is unique.
type Movement struct {
	ID              int64             `json:"id"`
	Type            Type              `json:"type"`
	ReferenceType   string            `json:"reference_type"`
	ReferenceNo     string            `json:"reference_no"`
	Source          location.Location `json:"source"`
	Destination     location.Location `json:"destination"`
	TotalQty        int64             `json:"total_qty"`
	Status          Status            `json:"status"`
	Bucket          Bucket            `json:"bucket"`
	BucketOperation Operation         `json:"bucket_operation"`
	CreatedBy       int64             `json:"created_by"`
	CreatedAt       time.Time         `json:"created_at"`
	VerifiedBy      *int64            `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time        `json:"verified_at,omitempty"`
	ReceivedDate    *time.Time        `json:"received_date,omitempty"`
	Items           []GoodsItem       `json:"items,omitempty"`
}

// Carton groups goods items shipped in one box.
type Carton struct {
	ID           int64
	MovementID   int64
	CartonNumber string
}

// GoodsItem is one spare line on a movement.
type GoodsItem struct {
	ID         int64     `json:"id"`
	MovementID int64     `json:"movement_id"`
	CartonID   *int64    `json:"carton_id,omitempty"`
	SpareID    int64     `json:"spare_id"`
	Qty        int64     `json:"qty"`
	Condition  Condition `json:"condition"`
}

// Line is caller input for one goods item.
type Line struct {
	SpareID      int64
	Qty          int64
	Condition    Condition
	CartonNumber string
}

// CreateInput describes a movement to record.
type CreateInput struct {
	Type          Type
	ReferenceType string
	ReferenceNo   string
	Source        location.Location
	Destination   location.Location
	Bucket        Bucket
	Operation     Operation
	Status        Status
	Lines         []Line
	CreatedBy     int64
}

// ErrMovementNotFound indicates no movement carries the reference number.
var ErrMovementNotFound = errors.New("movement: not found")
