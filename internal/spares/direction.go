package spares

import (
	"slices"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/shared"
)

type rule struct {
	source       location.Kind
	to           []location.Kind
	isReturn     bool
	bucket       movement.Bucket
	movementType movement.Type
}

var rules = map[RequestType]rule{
	TypeTechIssue:           {source: location.Technician, to: []location.Kind{location.ServiceCenter}, bucket: movement.BucketGood, movementType: movement.TypeTechIssueOut},
	TypeFillupDispatch:      {source: location.ServiceCenter, to: []location.Kind{location.Plant}, bucket: movement.BucketGood, movementType: movement.TypeFillupDispatch},
	TypeTechReturnDefective: {source: location.Technician, to: []location.Kind{location.ServiceCenter}, isReturn: true, bucket: movement.BucketDefective, movementType: movement.TypeTechReturnDefective},
	TypeTechReturnExcess:    {source: location.Technician, to: []location.Kind{location.ServiceCenter}, isReturn: true, bucket: movement.BucketGood, movementType: movement.TypeTechReturnExcess},
	TypeASCReturnDefective:  {source: location.ServiceCenter, to: []location.Kind{location.Plant}, isReturn: true, bucket: movement.BucketDefective, movementType: movement.TypeASCReturnDefective},
	TypeASCReturnExcess:     {source: location.ServiceCenter, to: []location.Kind{location.Plant, location.Warehouse}, isReturn: true, bucket: movement.BucketGood, movementType: movement.TypeASCReturnExcess},
	TypePlantTransfer:       {source: location.Plant, to: []location.Kind{location.Warehouse}, bucket: movement.BucketGood, movementType: movement.TypePlantTransfer},
}

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	_, ok := rules[t]
	return ok
}

// ValidateDirection checks that source and destination kinds suit the request type.
func ValidateDirection(t RequestType, source, to location.Location) error {
	r, ok := rules[t]
	if !ok {
		return shared.Validationf("unknown request type %q", t)
	}
	if !source.Valid() || !to.Valid() {
		return shared.Validationf("request source and destination required")
	}
	if source.Kind != r.source || !slices.Contains(r.to, to.Kind) {
		return shared.Validationf("%s cannot be requested from %s to %s", t, source.Kind, to.Kind)
	}
	return nil
}

// Flow describes where goods physically travel for a request.
type Flow struct {
	From         location.Location
	To           location.Location
	Bucket       movement.Bucket
	MovementType movement.Type
}

// Flow resolves the goods direction. Replenishments leave the fulfilling
// location; returns leave the requester.
func (r Request) Flow() (Flow, error) {
	if err := ValidateDirection(r.Type, r.Source, r.RequestedTo); err != nil {
		return Flow{}, err
	}
	rl := rules[r.Type]
	f := Flow{From: r.RequestedTo, To: r.Source, Bucket: rl.bucket, MovementType: rl.movementType}
	if rl.isReturn {
		f.From, f.To = r.Source, r.RequestedTo
	}
	return f, nil
}
