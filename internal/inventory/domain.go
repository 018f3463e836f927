// Package inventory maintains the per-location spare ledger.
package inventory

import (
	"errors"
	"time"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/movement"
)

// Stock is one ledger row keyed by spare and location.
type Stock struct {
	SpareID      int64             `json:"spare_id"`
	Location     location.Location `json:"location"`
	QtyGood      int64             `json:"qty_good"`
	QtyDefective int64             `json:"qty_defective"`
	QtyInTransit int64             `json:"qty_in_transit"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Qty returns the quantity held in bucket.
func (s Stock) Qty(b movement.Bucket) int64 {
	if b == movement.BucketDefective {
		return s.QtyDefective
	}
	return s.QtyGood
}

func (s *Stock) set(b movement.Bucket, qty int64) {
	if b == movement.BucketDefective {
		s.QtyDefective = qty
		return
	}
	s.QtyGood = qty
}

// Delta reports the net change applied to one bucket at one location.
type Delta struct {
	SpareID  int64             `json:"spare_id"`
	Location location.Location `json:"location"`
	Bucket   movement.Bucket   `json:"bucket"`
	Delta    int64             `json:"delta"`
}

// Line is one spare quantity to transfer.
type Line struct {
	SpareID int64
	Qty     int64
}

// AdjustmentInput describes a manual stock correction or opening balance.
type AdjustmentInput struct {
	SpareID        int64             `json:"spare_id" validate:"required,gt=0"`
	Location       location.Location `json:"location"`
	Bucket         movement.Bucket   `json:"bucket" validate:"required,oneof=GOOD DEFECTIVE"`
	Qty            int64             `json:"qty" validate:"required"`
	Reason         string            `json:"reason" validate:"required,max=255"`
	ActorID        int64             `json:"-" validate:"required,gt=0"`
	IdempotencyKey string            `json:"-" validate:"required,uuid"`
}

// AdjustmentResult is the ledger row after the adjustment and its movement.
type AdjustmentResult struct {
	Stock    Stock             `json:"stock"`
	Movement movement.Movement `json:"movement"`
}

// ErrStockNotFound indicates missing ledger row.
var ErrStockNotFound = errors.New("inventory: stock row not found")
