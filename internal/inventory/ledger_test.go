package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/store/memstore"
)

var (
	plant  = location.Must(location.Plant, 1)
	center = location.Must(location.ServiceCenter, 7)
)

type clampCall struct {
	spareID              int64
	attempted, available int64
}

func inTx(t *testing.T, st *memstore.Store, fn func(ctx context.Context, tx *memstore.Tx) error) {
	t.Helper()
	require.NoError(t, st.WithTx(context.Background(), fn))
}

func TestIncreaseCreatesRowOnFirstCredit(t *testing.T) {
	st := memstore.New()
	ledger := inventory.NewLedger(nil)

	inTx(t, st, func(ctx context.Context, tx *memstore.Tx) error {
		stock, err := ledger.Increase(ctx, tx, 5, center, 3, movement.BucketDefective)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stock.QtyDefective)
		assert.Zero(t, stock.QtyGood)
		return nil
	})
	row, ok := st.Stock(5, center)
	require.True(t, ok)
	assert.Equal(t, int64(3), row.QtyDefective)
}

func TestDecreaseClampsAtZero(t *testing.T) {
	st := memstore.New()
	st.SeedStock(inventory.Stock{SpareID: 5, Location: plant, QtyGood: 2})
	var calls []clampCall
	ledger := inventory.NewLedger(nil).OnClamp(func(spareID int64, _ location.Location, _ movement.Bucket, attempted, available int64) {
		calls = append(calls, clampCall{spareID, attempted, available})
	})

	inTx(t, st, func(ctx context.Context, tx *memstore.Tx) error {
		stock, err := ledger.Decrease(ctx, tx, 5, plant, 5, movement.BucketGood)
		require.NoError(t, err)
		assert.Zero(t, stock.QtyGood)
		return nil
	})
	row, _ := st.Stock(5, plant)
	assert.Zero(t, row.QtyGood)
	assert.Equal(t, []clampCall{{5, 5, 2}}, calls)
}

func TestDecreaseOnMissingRowWritesNothing(t *testing.T) {
	st := memstore.New()
	clamped := 0
	ledger := inventory.NewLedger(nil).OnClamp(func(int64, location.Location, movement.Bucket, int64, int64) { clamped++ })

	inTx(t, st, func(ctx context.Context, tx *memstore.Tx) error {
		_, err := ledger.Decrease(ctx, tx, 5, plant, 1, movement.BucketGood)
		return err
	})
	_, ok := st.Stock(5, plant)
	assert.False(t, ok)
	assert.Equal(t, 1, clamped)
}

func TestLedgerRejectsNonPositiveQuantities(t *testing.T) {
	st := memstore.New()
	ledger := inventory.NewLedger(nil)
	err := st.WithTx(context.Background(), func(ctx context.Context, tx *memstore.Tx) error {
		_, err := ledger.Increase(ctx, tx, 5, plant, 0, movement.BucketGood)
		return err
	})
	require.Error(t, err)
	err = st.WithTx(context.Background(), func(ctx context.Context, tx *memstore.Tx) error {
		_, err := ledger.Decrease(ctx, tx, 5, plant, -1, movement.BucketGood)
		return err
	})
	require.Error(t, err)
}

func TestTransferConservesQuantity(t *testing.T) {
	st := memstore.New()
	st.SeedStock(inventory.Stock{SpareID: 9, Location: plant, QtyGood: 4})
	st.SeedStock(inventory.Stock{SpareID: 5, Location: plant, QtyGood: 10})
	ledger := inventory.NewLedger(nil)

	var deltas []inventory.Delta
	inTx(t, st, func(ctx context.Context, tx *memstore.Tx) error {
		var err error
		deltas, err = ledger.Transfer(ctx, tx, plant, center, movement.BucketGood, []inventory.Line{
			{SpareID: 9, Qty: 1},
			{SpareID: 5, Qty: 4},
			{SpareID: 7, Qty: 0},
		})
		return err
	})

	assert.Equal(t, []inventory.Delta{
		{SpareID: 5, Location: plant, Bucket: movement.BucketGood, Delta: -4},
		{SpareID: 9, Location: plant, Bucket: movement.BucketGood, Delta: -1},
		{SpareID: 5, Location: center, Bucket: movement.BucketGood, Delta: 4},
		{SpareID: 9, Location: center, Bucket: movement.BucketGood, Delta: 1},
	}, deltas)

	var sum int64
	for _, d := range deltas {
		sum += d.Delta
	}
	assert.Zero(t, sum)
	for spare, want := range map[int64][2]int64{5: {6, 4}, 9: {3, 1}} {
		from, _ := st.Stock(spare, plant)
		to, _ := st.Stock(spare, center)
		assert.Equal(t, want[0], from.QtyGood, "plant spare %d", spare)
		assert.Equal(t, want[1], to.QtyGood, "center spare %d", spare)
	}
	_, ok := st.Stock(7, center)
	assert.False(t, ok)
}
