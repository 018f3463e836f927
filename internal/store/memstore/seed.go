package memstore

import (
	"slices"

	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/logistics"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/shared"
	"github.com/servicehub/sparecrm/internal/spares"
)

// SeedRequest stores req and its items, assigning ids.
func (s *Store) SeedRequest(req spares.Request) spares.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Status == "" {
		req.Status = spares.StatusPending
	}
	req.ID = s.data.id()
	req.Items = slices.Clone(req.Items)
	for i := range req.Items {
		req.Items[i].ID = s.data.id()
		req.Items[i].RequestID = req.ID
	}
	s.data.requests[req.ID] = req
	return req
}

// SeedStock sets a ledger row.
func (s *Store) SeedStock(stock inventory.Stock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.stock[stockKey{stock.SpareID, stock.Location}] = stock
}

// SeedPart registers spare master data.
func (s *Store) SeedPart(part spares.SparePart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.parts[part.ID] = part
}

// SeedPrincipal registers a user.
func (s *Store) SeedPrincipal(p shared.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.principals[p.UserID] = p
}

// SeedRegion assigns a location to a region.
func (s *Store) SeedRegion(loc location.Location, regionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.regions[loc] = regionID
}

// Stock returns the ledger row and whether it exists.
func (s *Store) Stock(spareID int64, loc location.Location) (inventory.Stock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stock, ok := s.data.stock[stockKey{spareID, loc}]
	return stock, ok
}

// StockRows returns every ledger row.
func (s *Store) StockRows() []inventory.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]inventory.Stock, 0, len(s.data.stock))
	for _, row := range s.data.stock {
		rows = append(rows, row)
	}
	return rows
}

// Request returns a stored request.
func (s *Store) Request(id int64) spares.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.data.requests[id]
	req.Items = slices.Clone(req.Items)
	return req
}

// Movements returns all movements with their goods items.
func (s *Store) Movements() []movement.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]movement.Movement, 0, len(s.data.movements))
	for _, m := range s.data.movements {
		out = append(out, s.data.withItems(m))
	}
	slices.SortFunc(out, func(a, b movement.Movement) int { return int(a.ID - b.ID) })
	return out
}

// Documents returns logistics documents of the given type for a request.
func (s *Store) Documents(requestID int64, typ logistics.DocumentType) []logistics.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []logistics.Document
	for _, doc := range s.data.documents {
		if doc.RequestID == requestID && doc.Type == typ {
			out = append(out, doc)
		}
	}
	return out
}

// SAPDocuments returns invoices recorded for a request.
func (s *Store) SAPDocuments(requestID int64) []logistics.SAPDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []logistics.SAPDocument
	for _, doc := range s.data.sapDocs {
		if doc.RequestID == requestID {
			out = append(out, doc)
		}
	}
	return out
}

// Approvals returns the approvals log.
func (s *Store) Approvals() []spares.Approval {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data.approvals)
}
