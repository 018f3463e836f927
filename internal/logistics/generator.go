package logistics

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/servicehub/sparecrm/internal/spares"
)

const defaultHSN = "84733099"

var (
	defaultGSTRate = decimal.NewFromInt(18)
	hundred        = decimal.NewFromInt(100)
)

// Generator builds document bundles. It performs no persistence.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator seeds a generator from the wall clock.
func NewGenerator() *Generator {
	seed := uint64(time.Now().UnixNano())
	return NewGeneratorWithSource(rand.NewPCG(seed, seed>>1|1), time.Now)
}

// NewGeneratorWithSource builds a deterministic generator for tests.
func NewGeneratorWithSource(src rand.Source, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{rnd: rand.New(src), now: now}
}

// Generate produces SO, DN and CHALLAN documents chained by reference plus
// an invoice referencing the SO. Master prices are used when known.
func (g *Generator) Generate(req spares.Request, lines []Line, parts map[int64]spares.SparePart, createdBy int64) (Bundle, error) {
	var total int64
	for _, ln := range lines {
		total += ln.Qty
	}
	if total <= 0 {
		return Bundle{}, ErrEmptyBundle
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	items := make([]DocumentItem, 0, len(lines))
	invoiceItems := make([]SAPDocumentItem, 0, len(lines))
	amount := decimal.Zero
	subtotal := decimal.Zero
	gstTotal := decimal.Zero
	for _, ln := range lines {
		if ln.Qty <= 0 {
			continue
		}
		part := parts[ln.SpareID]
		unit := g.price(part)
		qty := decimal.NewFromInt(ln.Qty)
		lineTotal := unit.Mul(qty).Round(2)
		items = append(items, DocumentItem{
			SpareID:     ln.SpareID,
			PartNumber:  part.PartNumber,
			Description: part.Description,
			Qty:         ln.Qty,
			UnitPrice:   unit,
			LineTotal:   lineTotal,
		})
		amount = amount.Add(lineTotal)

		rate := part.GSTRate
		if rate.IsZero() {
			rate = defaultGSTRate
		}
		hsn := part.HSN
		if hsn == "" {
			hsn = defaultHSN
		}
		gst := lineTotal.Mul(rate).Div(hundred).Round(2)
		invoiceItems = append(invoiceItems, SAPDocumentItem{
			SpareID:   ln.SpareID,
			HSN:       hsn,
			Qty:       ln.Qty,
			UnitPrice: unit,
			GSTRate:   rate,
			GSTAmount: gst,
			LineTotal: lineTotal.Add(gst),
		})
		subtotal = subtotal.Add(lineTotal)
		gstTotal = gstTotal.Add(gst)
	}

	so := g.document(req, DocumentSalesOrder, "SPARE_REQUEST", fmt.Sprintf("%d", req.ID), now, createdBy, total, amount, items)
	dn := g.document(req, DocumentDeliveryNote, string(DocumentSalesOrder), so.Number, now, createdBy, total, amount, items)
	challan := g.document(req, DocumentChallan, string(DocumentDeliveryNote), dn.Number, now, createdBy, total, amount, items)
	invoice := SAPDocument{
		RequestID:       req.ID,
		Type:            DocumentInvoice,
		Number:          g.number("INV", now),
		ReferenceNumber: so.Number,
		Status:          StatusPosted,
		Subtotal:        subtotal,
		GSTAmount:       gstTotal,
		Total:           subtotal.Add(gstTotal),
		CreatedBy:       createdBy,
		CreatedAt:       now,
		Items:           invoiceItems,
	}
	return Bundle{SalesOrder: so, DeliveryNote: dn, Challan: challan, Invoice: invoice}, nil
}

func (g *Generator) document(req spares.Request, typ DocumentType, refType, ref string, now time.Time, createdBy, qty int64, amount decimal.Decimal, items []DocumentItem) Document {
	return Document{
		RequestID:       req.ID,
		Type:            typ,
		Number:          g.number(string(typ), now),
		ReferenceType:   refType,
		ReferenceNumber: ref,
		Status:          StatusPosted,
		TotalQty:        qty,
		TotalAmount:     amount,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		Items:           append([]DocumentItem(nil), items...),
	}
}

func (g *Generator) number(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, now.Format("20060102"), g.rnd.IntN(1_000_000))
}

// price falls back to a random amount between 100.00 and 5000.00.
func (g *Generator) price(part spares.SparePart) decimal.Decimal {
	if part.UnitPrice.Valid {
		return part.UnitPrice.Decimal
	}
	return decimal.New(int64(g.rnd.IntN(490_001)+10_000), -2)
}
