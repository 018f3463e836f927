package movement

import (
	"context"
	"fmt"
	"time"

	"github.com/servicehub/sparecrm/internal/shared"
)

// Store persists movements. Implementations run inside the caller's transaction.
type Store interface {
	// InsertMovementIfAbsent inserts the header unless reference_no already exists.
	InsertMovementIfAbsent(ctx context.Context, m Movement) (int64, bool, error)
	GetMovementByReferenceForUpdate(ctx context.Context, referenceNo string) (Movement, error)
	InsertCarton(ctx context.Context, carton Carton) (int64, error)
	InsertGoodsItem(ctx context.Context, item GoodsItem) (int64, error)
	CompleteMovement(ctx context.Context, id, verifiedBy int64, at time.Time) error
}

// Recorder creates movements with their cartons and goods items.
type Recorder struct {
	now func() time.Time
}

// NewRecorder constructs a Recorder using the wall clock.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// WithClock overrides the clock used for timestamps.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	if now != nil {
		r.now = now
	}
	return r
}

// Create records a new movement and fails with ErrConflict when the
// reference number is already taken.
func (r *Recorder) Create(ctx context.Context, st Store, input CreateInput) (Movement, error) {
	m, created, err := r.FindOrCreate(ctx, st, input)
	if err != nil {
		return Movement{}, err
	}
	if !created {
		return Movement{}, fmt.Errorf("%w: movement %s already recorded", shared.ErrConflict, input.ReferenceNo)
	}
	return m, nil
}

// FindOrCreate returns the movement recorded under input.ReferenceNo,
// creating it when absent. The boolean reports whether it was created.
func (r *Recorder) FindOrCreate(ctx context.Context, st Store, input CreateInput) (Movement, bool, error) {
	if err := validateInput(input); err != nil {
		return Movement{}, false, err
	}
	status := input.Status
	if status == "" {
		status = StatusPending
	}
	m := Movement{
		Type:            input.Type,
		ReferenceType:   input.ReferenceType,
		ReferenceNo:     input.ReferenceNo,
		Source:          input.Source,
		Destination:     input.Destination,
		Status:          status,
		Bucket:          input.Bucket,
		BucketOperation: input.Operation,
		CreatedBy:       input.CreatedBy,
		CreatedAt:       r.now().UTC(),
	}
	for _, line := range input.Lines {
		m.TotalQty += line.Qty
	}

	id, created, err := st.InsertMovementIfAbsent(ctx, m)
	if err != nil {
		return Movement{}, false, err
	}
	if !created {
		existing, err := st.GetMovementByReferenceForUpdate(ctx, input.ReferenceNo)
		if err != nil {
			return Movement{}, false, err
		}
		return existing, false, nil
	}
	m.ID = id

	cartons := make(map[string]int64)
	for _, line := range input.Lines {
		item := GoodsItem{MovementID: id, SpareID: line.SpareID, Qty: line.Qty, Condition: line.Condition}
		if item.Condition == "" {
			item.Condition = ConditionFor(input.Bucket)
		}
		if line.CartonNumber != "" {
			cartonID, ok := cartons[line.CartonNumber]
			if !ok {
				cartonID, err = st.InsertCarton(ctx, Carton{MovementID: id, CartonNumber: line.CartonNumber})
				if err != nil {
					return Movement{}, false, err
				}
				cartons[line.CartonNumber] = cartonID
			}
			item.CartonID = &cartonID
		}
		item.ID, err = st.InsertGoodsItem(ctx, item)
		if err != nil {
			return Movement{}, false, err
		}
		m.Items = append(m.Items, item)
	}
	return m, true, nil
}

// Complete transitions a pending movement to completed and stamps the verifier.
// Completing an already completed movement is a no-op.
func (r *Recorder) Complete(ctx context.Context, st Store, m Movement, verifiedBy int64) (Movement, error) {
	if m.Status == StatusCompleted {
		return m, nil
	}
	at := r.now().UTC()
	if err := st.CompleteMovement(ctx, m.ID, verifiedBy, at); err != nil {
		return Movement{}, err
	}
	m.Status = StatusCompleted
	m.VerifiedBy = &verifiedBy
	m.VerifiedAt = &at
	m.ReceivedDate = &at
	return m, nil
}

func validateInput(input CreateInput) error {
	if input.ReferenceNo == "" {
		return shared.Validationf("movement reference number required")
	}
	if input.Type == "" {
		return shared.Validationf("movement type required")
	}
	if !input.Source.Valid() || !input.Destination.Valid() {
		return shared.Validationf("movement source and destination required")
	}
	if !input.Bucket.Valid() {
		return shared.Validationf("movement bucket %q invalid", input.Bucket)
	}
	if len(input.Lines) == 0 {
		return shared.Validationf("movement requires at least one line")
	}
	for _, line := range input.Lines {
		if line.SpareID <= 0 || line.Qty <= 0 {
			return shared.Validationf("movement line for spare %d has invalid quantity %d", line.SpareID, line.Qty)
		}
	}
	return nil
}
