package movement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/shared"
)

type memoryStore struct {
	movements map[string]Movement
	cartons   []Carton
	items     []GoodsItem
	nextID    int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{movements: make(map[string]Movement)}
}

func (s *memoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) InsertMovementIfAbsent(_ context.Context, m Movement) (int64, bool, error) {
	if existing, ok := s.movements[m.ReferenceNo]; ok {
		return existing.ID, false, nil
	}
	m.ID = s.id()
	s.movements[m.ReferenceNo] = m
	return m.ID, true, nil
}

func (s *memoryStore) GetMovementByReferenceForUpdate(_ context.Context, ref string) (Movement, error) {
	m, ok := s.movements[ref]
	if !ok {
		return Movement{}, ErrMovementNotFound
	}
	return m, nil
}

func (s *memoryStore) InsertCarton(_ context.Context, c Carton) (int64, error) {
	c.ID = s.id()
	s.cartons = append(s.cartons, c)
	return c.ID, nil
}

func (s *memoryStore) InsertGoodsItem(_ context.Context, item GoodsItem) (int64, error) {
	item.ID = s.id()
	s.items = append(s.items, item)
	return item.ID, nil
}

func (s *memoryStore) CompleteMovement(_ context.Context, id, verifiedBy int64, at time.Time) error {
	for ref, m := range s.movements {
		if m.ID == id {
			m.Status = StatusCompleted
			m.VerifiedBy = &verifiedBy
			m.VerifiedAt = &at
			s.movements[ref] = m
			return nil
		}
	}
	return ErrMovementNotFound
}

func dispatchInput(ref string) CreateInput {
	return CreateInput{
		Type:          TypeFillupDispatch,
		ReferenceType: "DELIVERY_NOTE",
		ReferenceNo:   ref,
		Source:        location.Must(location.Plant, 1),
		Destination:   location.Must(location.ServiceCenter, 7),
		Bucket:        BucketGood,
		Operation:     OperationDecrease,
		Lines: []Line{
			{SpareID: 5, Qty: 3, CartonNumber: "C-1"},
			{SpareID: 6, Qty: 2, CartonNumber: "C-1"},
			{SpareID: 9, Qty: 1},
		},
		CreatedBy: 42,
	}
}

func TestCreateGroupsCartonsAndTotals(t *testing.T) {
	st := newMemoryStore()
	rec := NewRecorder()

	m, err := rec.Create(context.Background(), st, dispatchInput("DN-1"))
	require.NoError(t, err)
	require.Equal(t, int64(6), m.TotalQty)
	require.Equal(t, StatusPending, m.Status)
	require.Len(t, m.Items, 3)
	require.Len(t, st.cartons, 1)
	require.NotNil(t, m.Items[0].CartonID)
	require.Equal(t, *m.Items[0].CartonID, *m.Items[1].CartonID)
	require.Nil(t, m.Items[2].CartonID)
	require.Equal(t, ConditionGood, m.Items[2].Condition)
}

func TestCreateRejectsDuplicateReference(t *testing.T) {
	st := newMemoryStore()
	rec := NewRecorder()
	ctx := context.Background()

	_, err := rec.Create(ctx, st, dispatchInput("DN-1"))
	require.NoError(t, err)
	_, err = rec.Create(ctx, st, dispatchInput("DN-1"))
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Len(t, st.items, 3)
}

func TestFindOrCreateReturnsExisting(t *testing.T) {
	st := newMemoryStore()
	rec := NewRecorder()
	ctx := context.Background()

	first, created, err := rec.FindOrCreate(ctx, st, dispatchInput("DN-2"))
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := rec.FindOrCreate(ctx, st, dispatchInput("DN-2"))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, again.ID)
	require.Len(t, st.items, 3)
}

func TestCreateValidation(t *testing.T) {
	rec := NewRecorder()
	ctx := context.Background()

	in := dispatchInput("")
	_, err := rec.Create(ctx, newMemoryStore(), in)
	require.ErrorIs(t, err, shared.ErrValidation)

	in = dispatchInput("DN-3")
	in.Lines = nil
	_, err = rec.Create(ctx, newMemoryStore(), in)
	require.ErrorIs(t, err, shared.ErrValidation)

	in = dispatchInput("DN-4")
	in.Lines[0].Qty = 0
	_, err = rec.Create(ctx, newMemoryStore(), in)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCompleteStampsVerifier(t *testing.T) {
	st := newMemoryStore()
	fixed := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	rec := NewRecorder().WithClock(func() time.Time { return fixed })
	ctx := context.Background()

	m, err := rec.Create(ctx, st, dispatchInput("DN-5"))
	require.NoError(t, err)

	done, err := rec.Complete(ctx, st, m, 77)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, done.Status)
	require.Equal(t, int64(77), *done.VerifiedBy)
	require.Equal(t, fixed, *done.ReceivedDate)
	require.Equal(t, StatusCompleted, st.movements["DN-5"].Status)

	again, err := rec.Complete(ctx, st, done, 78)
	require.NoError(t, err)
	require.Equal(t, int64(77), *again.VerifiedBy)
}
