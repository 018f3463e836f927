package memstore

import (
	"context"
	"slices"
	"time"

	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/logistics"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/spares"
)

// Tx is the transactional view handed to WithTx callbacks.
type Tx struct {
	store *Store
}

func (tx *Tx) data() *state {
	return &tx.store.data
}

func (tx *Tx) fail(method string) error {
	return tx.store.failures[method]
}

func (s *state) withItems(m movement.Movement) movement.Movement {
	m.Items = nil
	for _, it := range s.goodsItems {
		if it.MovementID == m.ID {
			m.Items = append(m.Items, it)
		}
	}
	return m
}

func (tx *Tx) LockRequest(_ context.Context, id int64) (spares.Request, error) {
	if err := tx.fail("LockRequest"); err != nil {
		return spares.Request{}, err
	}
	req, ok := tx.data().requests[id]
	if !ok {
		return spares.Request{}, spares.ErrRequestNotFound
	}
	req.Items = slices.Clone(req.Items)
	return req, nil
}

func (tx *Tx) InsertRequest(_ context.Context, req spares.Request) (int64, error) {
	if err := tx.fail("InsertRequest"); err != nil {
		return 0, err
	}
	d := tx.data()
	req.ID = d.id()
	req.Items = nil
	d.requests[req.ID] = req
	return req.ID, nil
}

func (tx *Tx) InsertItem(_ context.Context, item spares.Item) (int64, error) {
	if err := tx.fail("InsertItem"); err != nil {
		return 0, err
	}
	d := tx.data()
	req, ok := d.requests[item.RequestID]
	if !ok {
		return 0, spares.ErrRequestNotFound
	}
	item.ID = d.id()
	req.Items = append(slices.Clone(req.Items), item)
	d.requests[req.ID] = req
	return item.ID, nil
}

func (tx *Tx) SetItemDecision(_ context.Context, itemID, approvedQty int64, rejectionReason *string) error {
	if err := tx.fail("SetItemDecision"); err != nil {
		return err
	}
	d := tx.data()
	for id, req := range d.requests {
		for i, it := range req.Items {
			if it.ID != itemID {
				continue
			}
			items := slices.Clone(req.Items)
			qty := approvedQty
			items[i].ApprovedQty = &qty
			items[i].RejectionReason = nil
			if rejectionReason != nil {
				reason := *rejectionReason
				items[i].RejectionReason = &reason
			}
			req.Items = items
			d.requests[id] = req
			return nil
		}
	}
	return spares.ErrItemNotFound
}

func (tx *Tx) UpdateRequestStatus(_ context.Context, id int64, status spares.Status) error {
	if err := tx.fail("UpdateRequestStatus"); err != nil {
		return err
	}
	d := tx.data()
	req, ok := d.requests[id]
	if !ok {
		return spares.ErrRequestNotFound
	}
	if _, ok := d.statuses[status]; !ok {
		d.statuses[status] = d.id()
	}
	req.Status = status
	req.UpdatedAt = time.Now().UTC()
	d.requests[id] = req
	return nil
}

func (tx *Tx) InsertApproval(_ context.Context, a spares.Approval) (int64, error) {
	if err := tx.fail("InsertApproval"); err != nil {
		return 0, err
	}
	d := tx.data()
	a.ID = d.id()
	d.approvals = append(d.approvals, a)
	return a.ID, nil
}

func (tx *Tx) GetSpareParts(_ context.Context, ids []int64) (map[int64]spares.SparePart, error) {
	out := make(map[int64]spares.SparePart, len(ids))
	for _, id := range ids {
		if p, ok := tx.data().parts[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (tx *Tx) GetStockForUpdate(_ context.Context, spareID int64, loc location.Location) (inventory.Stock, error) {
	if err := tx.fail("GetStockForUpdate"); err != nil {
		return inventory.Stock{}, err
	}
	stock, ok := tx.data().stock[stockKey{spareID, loc}]
	if !ok {
		return inventory.Stock{SpareID: spareID, Location: loc}, inventory.ErrStockNotFound
	}
	return stock, nil
}

func (tx *Tx) UpsertStock(_ context.Context, stock inventory.Stock) error {
	if err := tx.fail("UpsertStock"); err != nil {
		return err
	}
	tx.data().stock[stockKey{stock.SpareID, stock.Location}] = stock
	return nil
}

func (tx *Tx) InsertMovementIfAbsent(_ context.Context, m movement.Movement) (int64, bool, error) {
	if err := tx.fail("InsertMovementIfAbsent"); err != nil {
		return 0, false, err
	}
	d := tx.data()
	if existing, ok := d.movements[m.ReferenceNo]; ok {
		return existing.ID, false, nil
	}
	m.ID = d.id()
	m.Items = nil
	d.movements[m.ReferenceNo] = m
	return m.ID, true, nil
}

func (tx *Tx) GetMovementByReferenceForUpdate(_ context.Context, referenceNo string) (movement.Movement, error) {
	d := tx.data()
	m, ok := d.movements[referenceNo]
	if !ok {
		return movement.Movement{}, movement.ErrMovementNotFound
	}
	return d.withItems(m), nil
}

func (tx *Tx) InsertCarton(_ context.Context, c movement.Carton) (int64, error) {
	if err := tx.fail("InsertCarton"); err != nil {
		return 0, err
	}
	d := tx.data()
	c.ID = d.id()
	d.cartons = append(d.cartons, c)
	return c.ID, nil
}

func (tx *Tx) InsertGoodsItem(_ context.Context, item movement.GoodsItem) (int64, error) {
	if err := tx.fail("InsertGoodsItem"); err != nil {
		return 0, err
	}
	d := tx.data()
	item.ID = d.id()
	d.goodsItems = append(d.goodsItems, item)
	return item.ID, nil
}

func (tx *Tx) CompleteMovement(_ context.Context, id, verifiedBy int64, at time.Time) error {
	if err := tx.fail("CompleteMovement"); err != nil {
		return err
	}
	d := tx.data()
	for ref, m := range d.movements {
		if m.ID != id {
			continue
		}
		m.Status = movement.StatusCompleted
		m.VerifiedBy = &verifiedBy
		m.VerifiedAt = &at
		m.ReceivedDate = &at
		d.movements[ref] = m
		return nil
	}
	return movement.ErrMovementNotFound
}

func (tx *Tx) InsertDocument(_ context.Context, doc logistics.Document) (int64, error) {
	if err := tx.fail("InsertDocument"); err != nil {
		return 0, err
	}
	d := tx.data()
	doc.ID = d.id()
	doc.Items = nil
	d.documents = append(d.documents, doc)
	return doc.ID, nil
}

func (tx *Tx) InsertDocumentItems(_ context.Context, documentID int64, items []logistics.DocumentItem) error {
	if err := tx.fail("InsertDocumentItems"); err != nil {
		return err
	}
	d := tx.data()
	for i, doc := range d.documents {
		if doc.ID != documentID {
			continue
		}
		for _, it := range items {
			it.ID = d.id()
			it.DocumentID = documentID
			doc.Items = append(doc.Items, it)
		}
		d.documents[i] = doc
		return nil
	}
	return logistics.ErrDocumentNotFound
}

func (tx *Tx) FindDocumentForUpdate(_ context.Context, requestID int64, typ logistics.DocumentType, status logistics.DocumentStatus) (logistics.Document, error) {
	if err := tx.fail("FindDocumentForUpdate"); err != nil {
		return logistics.Document{}, err
	}
	for _, doc := range tx.data().documents {
		if doc.RequestID == requestID && doc.Type == typ && doc.Status == status {
			doc.Items = slices.Clone(doc.Items)
			return doc, nil
		}
	}
	return logistics.Document{}, logistics.ErrDocumentNotFound
}

func (tx *Tx) UpdateDocumentStatus(_ context.Context, id int64, status logistics.DocumentStatus) error {
	if err := tx.fail("UpdateDocumentStatus"); err != nil {
		return err
	}
	d := tx.data()
	for i, doc := range d.documents {
		if doc.ID == id {
			d.documents[i].Status = status
			return nil
		}
	}
	return logistics.ErrDocumentNotFound
}

func (tx *Tx) InsertSAPDocument(_ context.Context, doc logistics.SAPDocument) (int64, error) {
	if err := tx.fail("InsertSAPDocument"); err != nil {
		return 0, err
	}
	d := tx.data()
	doc.ID = d.id()
	doc.Items = nil
	d.sapDocs = append(d.sapDocs, doc)
	return doc.ID, nil
}

func (tx *Tx) InsertSAPDocumentItems(_ context.Context, documentID int64, items []logistics.SAPDocumentItem) error {
	if err := tx.fail("InsertSAPDocumentItems"); err != nil {
		return err
	}
	d := tx.data()
	for i, doc := range d.sapDocs {
		if doc.ID != documentID {
			continue
		}
		for _, it := range items {
			it.ID = d.id()
			it.SAPDocumentID = documentID
			doc.Items = append(doc.Items, it)
		}
		d.sapDocs[i] = doc
		return nil
	}
	return logistics.ErrDocumentNotFound
}
