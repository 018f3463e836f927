package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/servicehub/sparecrm/internal/logistics"
	"github.com/servicehub/sparecrm/internal/shared"
)

func (t *Tx) InsertDocument(ctx context.Context, doc logistics.Document) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `INSERT INTO logistics_documents (request_id, document_type, document_number,
	reference_type, reference_number, status, total_qty, total_amount, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
RETURNING id`,
		doc.RequestID, string(doc.Type), doc.Number, doc.ReferenceType, doc.ReferenceNumber,
		string(doc.Status), doc.TotalQty, doc.TotalAmount, doc.CreatedBy, doc.CreatedAt).Scan(&id)
	if err != nil {
		return 0, shared.Persistence("insert logistics document", err)
	}
	return id, nil
}

func (t *Tx) InsertDocumentItems(ctx context.Context, documentID int64, items []logistics.DocumentItem) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`INSERT INTO logistics_document_items (document_id, spare_id, part_number, description, qty, unit_price, line_total)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			documentID, it.SpareID, it.PartNumber, it.Description, it.Qty, it.UnitPrice, it.LineTotal)
	}
	return t.sendBatch(ctx, batch, len(items), "insert logistics document items")
}

func (t *Tx) FindDocumentForUpdate(ctx context.Context, requestID int64, typ logistics.DocumentType, status logistics.DocumentStatus) (logistics.Document, error) {
	var doc logistics.Document
	var docType, docStatus string
	err := t.q.QueryRow(ctx, `SELECT id, request_id, document_type, document_number, reference_type, reference_number,
	status, total_qty, total_amount, created_by, created_at
FROM logistics_documents
WHERE request_id = $1 AND document_type = $2 AND status = $3
ORDER BY created_at, id
LIMIT 1
FOR UPDATE`, requestID, string(typ), string(status)).Scan(
		&doc.ID, &doc.RequestID, &docType, &doc.Number, &doc.ReferenceType, &doc.ReferenceNumber,
		&docStatus, &doc.TotalQty, &doc.TotalAmount, &doc.CreatedBy, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return logistics.Document{}, logistics.ErrDocumentNotFound
	}
	if err != nil {
		return logistics.Document{}, shared.Persistence("find logistics document", err)
	}
	doc.Type = logistics.DocumentType(docType)
	doc.Status = logistics.DocumentStatus(docStatus)

	rows, err := t.q.Query(ctx, `SELECT id, document_id, spare_id, part_number, description, qty, unit_price, line_total
FROM logistics_document_items WHERE document_id = $1 ORDER BY id`, doc.ID)
	if err != nil {
		return logistics.Document{}, shared.Persistence("list logistics document items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it logistics.DocumentItem
		if err := rows.Scan(&it.ID, &it.DocumentID, &it.SpareID, &it.PartNumber, &it.Description, &it.Qty, &it.UnitPrice, &it.LineTotal); err != nil {
			return logistics.Document{}, shared.Persistence("scan logistics document item", err)
		}
		doc.Items = append(doc.Items, it)
	}
	if err := rows.Err(); err != nil {
		return logistics.Document{}, shared.Persistence("iterate logistics document items", err)
	}
	return doc, nil
}

func (t *Tx) UpdateDocumentStatus(ctx context.Context, id int64, status logistics.DocumentStatus) error {
	tag, err := t.q.Exec(ctx, `UPDATE logistics_documents SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return shared.Persistence("update logistics document status", err)
	}
	if tag.RowsAffected() == 0 {
		return logistics.ErrDocumentNotFound
	}
	return nil
}

func (t *Tx) InsertSAPDocument(ctx context.Context, doc logistics.SAPDocument) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `INSERT INTO sap_documents (request_id, document_type, document_number, reference_number,
	status, subtotal, gst_amount, total, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`,
		doc.RequestID, string(doc.Type), doc.Number, doc.ReferenceNumber, string(doc.Status),
		doc.Subtotal, doc.GSTAmount, doc.Total, doc.CreatedBy, doc.CreatedAt).Scan(&id)
	if err != nil {
		return 0, shared.Persistence("insert sap document", err)
	}
	return id, nil
}

func (t *Tx) InsertSAPDocumentItems(ctx context.Context, documentID int64, items []logistics.SAPDocumentItem) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`INSERT INTO sap_document_items (sap_document_id, spare_id, hsn, qty, unit_price, gst_rate, gst_amount, line_total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			documentID, it.SpareID, it.HSN, it.Qty, it.UnitPrice, it.GSTRate, it.GSTAmount, it.LineTotal)
	}
	return t.sendBatch(ctx, batch, len(items), "insert sap document items")
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func (t *Tx) sendBatch(ctx context.Context, batch *pgx.Batch, n int, op string) error {
	if n == 0 {
		return nil
	}
	sender, ok := t.q.(batchSender)
	if !ok {
		return shared.Persistence(op, errors.New("querier does not support batches"))
	}
	results := sender.SendBatch(ctx, batch)
	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return shared.Persistence(op, err)
		}
	}
	if err := results.Close(); err != nil {
		return shared.Persistence(op, err)
	}
	return nil
}
