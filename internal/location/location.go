// Package location models the places spares can be held: plants, service
// centers, technicians and warehouses.
package location

import (
	"fmt"

	"github.com/servicehub/sparecrm/internal/shared"
)

// Kind discriminates the location union.
type Kind uint8

const (
	kindUnknown Kind = iota
	// Plant is a fulfilling warehouse that stocks service centers in its region.
	Plant
	// ServiceCenter holds inventory for its technicians.
	ServiceCenter
	// Technician holds a personal float of spares.
	Technician
	// Warehouse is a central store receiving plant transfers and returns.
	Warehouse
)

var kindNames = map[Kind]string{
	Plant:         "plant",
	ServiceCenter: "service_center",
	Technician:    "technician",
	Warehouse:     "warehouse",
}

// String returns the persisted name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind converts a persisted location_type into a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return kindUnknown, shared.Validationf("unknown location type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("location: cannot marshal kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Location identifies one holding point. The ID is scoped to the kind.
type Location struct {
	Kind Kind  `json:"type"`
	ID   int64 `json:"id"`
}

// New builds a location and rejects invalid combinations.
func New(kind Kind, id int64) (Location, error) {
	loc := Location{Kind: kind, ID: id}
	if !loc.Valid() {
		return Location{}, shared.Validationf("invalid location %s/%d", kind, id)
	}
	return loc, nil
}

// Parse builds a location from its persisted columns.
func Parse(kind string, id int64) (Location, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Location{}, err
	}
	return New(k, id)
}

// Must is New for static wiring and tests.
func Must(kind Kind, id int64) Location {
	loc, err := New(kind, id)
	if err != nil {
		panic(err)
	}
	return loc
}

// Valid reports whether the location names a known kind and a positive id.
func (l Location) Valid() bool {
	_, ok := kindNames[l.Kind]
	return ok && l.ID > 0
}

// IsZero reports whether the location is unset.
func (l Location) IsZero() bool {
	return l == Location{}
}

func (l Location) String() string {
	return fmt.Sprintf("%s/%d", l.Kind, l.ID)
}
