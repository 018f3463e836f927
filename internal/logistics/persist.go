package logistics

import (
	"context"
	"errors"
)

// Store persists documents inside the caller's transaction.
type Store interface {
	InsertDocument(ctx context.Context, doc Document) (int64, error)
	InsertDocumentItems(ctx context.Context, documentID int64, items []DocumentItem) error
	// FindDocumentForUpdate returns the oldest matching document, locked.
	FindDocumentForUpdate(ctx context.Context, requestID int64, typ DocumentType, status DocumentStatus) (Document, error)
	UpdateDocumentStatus(ctx context.Context, id int64, status DocumentStatus) error
	InsertSAPDocument(ctx context.Context, doc SAPDocument) (int64, error)
	InsertSAPDocumentItems(ctx context.Context, documentID int64, items []SAPDocumentItem) error
}

// Persist writes the bundle. A Posted delivery note already recorded for the
// request is reused, and the challan then references its number.
func Persist(ctx context.Context, st Store, b Bundle) (Bundle, error) {
	var err error
	if b.SalesOrder, err = insertDocument(ctx, st, b.SalesOrder); err != nil {
		return Bundle{}, err
	}

	existing, err := st.FindDocumentForUpdate(ctx, b.DeliveryNote.RequestID, DocumentDeliveryNote, StatusPosted)
	switch {
	case err == nil:
		b.DeliveryNote = existing
	case errors.Is(err, ErrDocumentNotFound):
		b.DeliveryNote.ReferenceNumber = b.SalesOrder.Number
		if b.DeliveryNote, err = insertDocument(ctx, st, b.DeliveryNote); err != nil {
			return Bundle{}, err
		}
	default:
		return Bundle{}, err
	}

	b.Challan.ReferenceNumber = b.DeliveryNote.Number
	if b.Challan, err = insertDocument(ctx, st, b.Challan); err != nil {
		return Bundle{}, err
	}

	b.Invoice.ReferenceNumber = b.SalesOrder.Number
	id, err := st.InsertSAPDocument(ctx, b.Invoice)
	if err != nil {
		return Bundle{}, err
	}
	b.Invoice.ID = id
	for i := range b.Invoice.Items {
		b.Invoice.Items[i].SAPDocumentID = id
	}
	if err := st.InsertSAPDocumentItems(ctx, id, b.Invoice.Items); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

func insertDocument(ctx context.Context, st Store, doc Document) (Document, error) {
	id, err := st.InsertDocument(ctx, doc)
	if err != nil {
		return Document{}, err
	}
	doc.ID = id
	for i := range doc.Items {
		doc.Items[i].DocumentID = id
	}
	if err := st.InsertDocumentItems(ctx, id, doc.Items); err != nil {
		return Document{}, err
	}
	return doc, nil
}
