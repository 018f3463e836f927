// Package memstore is an in-memory, transactional implementation of every
// repository port. A failed transaction restores the pre-transaction state.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/logistics"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/shared"
	"github.com/servicehub/sparecrm/internal/spares"
)

type stockKey struct {
	spareID int64
	loc     location.Location
}

type state struct {
	nextID     int64
	requests   map[int64]spares.Request
	statuses   map[spares.Status]int64
	approvals  []spares.Approval
	parts      map[int64]spares.SparePart
	stock      map[stockKey]inventory.Stock
	movements  map[string]movement.Movement
	cartons    []movement.Carton
	goodsItems []movement.GoodsItem
	documents  []logistics.Document
	sapDocs    []logistics.SAPDocument
	principals map[int64]shared.Principal
	regions    map[location.Location]int64
}

func newState() state {
	return state{
		requests:   make(map[int64]spares.Request),
		statuses:   make(map[spares.Status]int64),
		parts:      make(map[int64]spares.SparePart),
		stock:      make(map[stockKey]inventory.Stock),
		movements:  make(map[string]movement.Movement),
		principals: make(map[int64]shared.Principal),
		regions:    make(map[location.Location]int64),
	}
}

func (s state) clone() state {
	c := s
	c.requests = make(map[int64]spares.Request, len(s.requests))
	for id, req := range s.requests {
		req.Items = slices.Clone(req.Items)
		c.requests[id] = req
	}
	c.statuses = maps.Clone(s.statuses)
	c.approvals = slices.Clone(s.approvals)
	c.parts = maps.Clone(s.parts)
	c.stock = maps.Clone(s.stock)
	c.movements = maps.Clone(s.movements)
	c.cartons = slices.Clone(s.cartons)
	c.goodsItems = slices.Clone(s.goodsItems)
	c.documents = make([]logistics.Document, len(s.documents))
	for i, doc := range s.documents {
		doc.Items = slices.Clone(doc.Items)
		c.documents[i] = doc
	}
	c.sapDocs = make([]logistics.SAPDocument, len(s.sapDocs))
	for i, doc := range s.sapDocs {
		doc.Items = slices.Clone(doc.Items)
		c.sapDocs[i] = doc
	}
	c.principals = maps.Clone(s.principals)
	c.regions = maps.Clone(s.regions)
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store holds the data. Transactions are serialised by a single mutex.
type Store struct {
	mu       sync.Mutex
	data     state
	failures map[string]error
	txCount  int
}

// New returns an empty store.
func New() *Store {
	return &Store{data: newState(), failures: make(map[string]error)}
}

// FailOn makes the named transactional method return err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = err
}

// TxCount reports how many transactions were opened.
func (s *Store) TxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

// WithTx runs fn against a snapshot-protected transaction.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++
	snapshot := s.data.clone()
	if err := fn(ctx, &Tx{store: s}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// GetRequest returns the request with its items.
func (s *Store) GetRequest(_ context.Context, id int64) (spares.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.data.requests[id]
	if !ok {
		return spares.Request{}, spares.ErrRequestNotFound
	}
	req.Items = slices.Clone(req.Items)
	return req, nil
}

// GetStock returns the ledger row without locking.
func (s *Store) GetStock(_ context.Context, spareID int64, loc location.Location) (inventory.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stock, ok := s.data.stock[stockKey{spareID, loc}]
	if !ok {
		return inventory.Stock{SpareID: spareID, Location: loc}, inventory.ErrStockNotFound
	}
	return stock, nil
}

// LookupPrincipal resolves a user id.
func (s *Store) LookupPrincipal(_ context.Context, userID int64) (shared.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.principals[userID]
	if !ok {
		return shared.Principal{}, fmt.Errorf("user %d %w", userID, shared.ErrNotFound)
	}
	p.RegionIDs = slices.Clone(p.RegionIDs)
	return p, nil
}

// RegionOf returns the region a location belongs to.
func (s *Store) RegionOf(_ context.Context, loc location.Location) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	region, ok := s.data.regions[loc]
	if !ok {
		return 0, fmt.Errorf("region for %s %w", loc, shared.ErrNotFound)
	}
	return region, nil
}
