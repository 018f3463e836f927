package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/shared"
)

// Store is the ledger persistence used inside a caller-owned transaction.
type Store interface {
	// GetStockForUpdate locks and returns the row, or a zero row and ErrStockNotFound.
	GetStockForUpdate(ctx context.Context, spareID int64, loc location.Location) (Stock, error)
	UpsertStock(ctx context.Context, stock Stock) error
}

// ClampFunc observes a decrease that would have driven a bucket negative.
type ClampFunc func(spareID int64, loc location.Location, bucket movement.Bucket, attempted, available int64)

// Ledger applies the two primitive quantity mutations.
type Ledger struct {
	logger  *slog.Logger
	onClamp ClampFunc
	now     func() time.Time
}

// NewLedger builds a Ledger.
func NewLedger(logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{logger: logger, now: time.Now}
}

// OnClamp registers an observer for clamped decreases.
func (l *Ledger) OnClamp(fn ClampFunc) *Ledger {
	l.onClamp = fn
	return l
}

// Available locks the row and returns the bucket quantity, zero when absent.
func (l *Ledger) Available(ctx context.Context, st Store, spareID int64, loc location.Location, bucket movement.Bucket) (int64, error) {
	stock, err := l.load(ctx, st, spareID, loc)
	if err != nil {
		return 0, err
	}
	return stock.Qty(bucket), nil
}

// Increase adds qty to the bucket, creating the row when first credited.
func (l *Ledger) Increase(ctx context.Context, st Store, spareID int64, loc location.Location, qty int64, bucket movement.Bucket) (Stock, error) {
	if qty <= 0 {
		return Stock{}, shared.Validationf("increase quantity must be positive, got %d", qty)
	}
	stock, err := l.load(ctx, st, spareID, loc)
	if err != nil {
		return Stock{}, err
	}
	stock.set(bucket, stock.Qty(bucket)+qty)
	stock.UpdatedAt = l.now().UTC()
	if err := st.UpsertStock(ctx, stock); err != nil {
		return Stock{}, err
	}
	return stock, nil
}

// Decrease subtracts qty from the bucket. A decrease below zero is clamped
// at zero and logged as a consistency violation instead of failing.
func (l *Ledger) Decrease(ctx context.Context, st Store, spareID int64, loc location.Location, qty int64, bucket movement.Bucket) (Stock, error) {
	if qty <= 0 {
		return Stock{}, shared.Validationf("decrease quantity must be positive, got %d", qty)
	}
	stock, err := st.GetStockForUpdate(ctx, spareID, loc)
	missing := errors.Is(err, ErrStockNotFound)
	if err != nil && !missing {
		return Stock{}, err
	}
	current := stock.Qty(bucket)
	if current < qty {
		l.clamp(spareID, loc, bucket, qty, current)
	}
	if missing {
		return Stock{SpareID: spareID, Location: loc}, nil
	}
	stock.set(bucket, max(current-qty, 0))
	stock.UpdatedAt = l.now().UTC()
	if err := st.UpsertStock(ctx, stock); err != nil {
		return Stock{}, err
	}
	return stock, nil
}

// Transfer moves every line from one location to another within the same
// bucket. Rows are touched in ascending spare order.
func (l *Ledger) Transfer(ctx context.Context, st Store, from, to location.Location, bucket movement.Bucket, lines []Line) ([]Delta, error) {
	sorted := make([]Line, 0, len(lines))
	for _, ln := range lines {
		if ln.Qty > 0 {
			sorted = append(sorted, ln)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SpareID < sorted[j].SpareID })

	deltas := make([]Delta, 0, 2*len(sorted))
	for _, ln := range sorted {
		if _, err := l.Decrease(ctx, st, ln.SpareID, from, ln.Qty, bucket); err != nil {
			return nil, err
		}
		deltas = append(deltas, Delta{SpareID: ln.SpareID, Location: from, Bucket: bucket, Delta: -ln.Qty})
	}
	for _, ln := range sorted {
		if _, err := l.Increase(ctx, st, ln.SpareID, to, ln.Qty, bucket); err != nil {
			return nil, err
		}
		deltas = append(deltas, Delta{SpareID: ln.SpareID, Location: to, Bucket: bucket, Delta: ln.Qty})
	}
	return deltas, nil
}

func (l *Ledger) load(ctx context.Context, st Store, spareID int64, loc location.Location) (Stock, error) {
	stock, err := st.GetStockForUpdate(ctx, spareID, loc)
	if errors.Is(err, ErrStockNotFound) {
		return Stock{SpareID: spareID, Location: loc}, nil
	}
	if err != nil {
		return Stock{}, err
	}
	return stock, nil
}

func (l *Ledger) clamp(spareID int64, loc location.Location, bucket movement.Bucket, attempted, available int64) {
	err := fmt.Errorf("%w: decrease of %d exceeds %d", shared.ErrConsistency, attempted, available)
	l.logger.Warn("ledger decrease clamped at zero",
		slog.Int64("spare_id", spareID),
		slog.String("location", loc.String()),
		slog.String("bucket", string(bucket)),
		slog.Int64("attempted", attempted),
		slog.Int64("available", available),
		slog.Any("error", err))
	if l.onClamp != nil {
		l.onClamp(spareID, loc, bucket, attempted, available)
	}
}
