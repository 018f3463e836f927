// Package logistics produces the mock SAP paper trail for approved requests.
package logistics

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/servicehub/sparecrm/internal/shared"
)

// DocumentType identifies a logistics document.
type DocumentType string

const (
	DocumentSalesOrder   DocumentType = "SO"
	DocumentDeliveryNote DocumentType = "DN"
	DocumentChallan      DocumentType = "CHALLAN"
	DocumentInvoice      DocumentType = "INVOICE"
)

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentSalesOrder, DocumentDeliveryNote, DocumentChallan, DocumentInvoice:
		return true
	}
	return false
}

// DocumentStatus tracks whether goods behind a document have been received.
type DocumentStatus string

const (
	StatusPosted    DocumentStatus = "Posted"
	StatusCompleted DocumentStatus = "Completed"
)

// Document is a SO, DN or CHALLAN row.
type Document struct {
	ID              int64           `json:"id"`
	RequestID       int64           `json:"request_id"`
	Type            DocumentType    `json:"type"`
	Number          string          `json:"number"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceNumber string          `json:"reference_number"`
	Status          DocumentStatus  `json:"status"`
	TotalQty        int64           `json:"total_qty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	CreatedBy       int64           `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []DocumentItem  `json:"items"`
}

// DocumentItem mirrors one approved request item.
type DocumentItem struct {
	ID          int64           `json:"id"`
	DocumentID  int64           `json:"document_id"`
	SpareID     int64           `json:"spare_id"`
	PartNumber  string          `json:"part_number"`
	Description string          `json:"description"`
	Qty         int64           `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// SAPDocument is the invoice record kept apart from logistics documents.
type SAPDocument struct {
	ID              int64             `json:"id"`
	RequestID       int64             `json:"request_id"`
	Type            DocumentType      `json:"type"`
	Number          string            `json:"number"`
	ReferenceNumber string            `json:"reference_number"`
	Status          DocumentStatus    `json:"status"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	GSTAmount       decimal.Decimal   `json:"gst_amount"`
	Total           decimal.Decimal   `json:"total"`
	CreatedBy       int64             `json:"created_by"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []SAPDocumentItem `json:"items"`
}

// SAPDocumentItem carries pricing and tax for one invoice line.
type SAPDocumentItem struct {
	ID            int64           `json:"id"`
	SAPDocumentID int64           `json:"sap_document_id"`
	SpareID       int64           `json:"spare_id"`
	HSN           string          `json:"hsn"`
	Qty           int64           `json:"qty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
	GSTAmount     decimal.Decimal `json:"gst_amount"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// Bundle is the chained document set for one approval.
type Bundle struct {
	SalesOrder   Document    `json:"sales_order"`
	DeliveryNote Document    `json:"delivery_note"`
	Challan      Document    `json:"challan"`
	Invoice      SAPDocument `json:"invoice"`
}

// Line is one approved spare quantity to document.
type Line struct {
	SpareID int64
	Qty     int64
}

// ErrDocumentNotFound indicates no document in the requested state.
var ErrDocumentNotFound = fmt.Errorf("logistics document %w", shared.ErrNotFound)

// ErrEmptyBundle is returned when there is nothing to document.
var ErrEmptyBundle = errors.New("logistics: no approved quantity to document")
