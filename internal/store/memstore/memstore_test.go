package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/logistics"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/spares"
)

var (
	_ spares.TxStore       = (*Tx)(nil)
	_ inventory.Store      = (*Tx)(nil)
	_ movement.Store       = (*Tx)(nil)
	_ logistics.Store      = (*Tx)(nil)
	_ spares.TxRunner[*Tx] = (*Store)(nil)
)

func TestWithTxRollsBackOnError(t *testing.T) {
	st := New()
	plant := location.Must(location.Plant, 1)
	st.SeedStock(inventory.Stock{SpareID: 5, Location: plant, QtyGood: 10})
	boom := errors.New("boom")

	err := st.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error {
		require.NoError(t, tx.UpsertStock(ctx, inventory.Stock{SpareID: 5, Location: plant, QtyGood: 2}))
		_, _, err := tx.InsertMovementIfAbsent(ctx, movement.Movement{ReferenceNo: "DN-1"})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	stock, ok := st.Stock(5, plant)
	require.True(t, ok)
	require.Equal(t, int64(10), stock.QtyGood)
	require.Empty(t, st.Movements())
}

func TestWithTxCommits(t *testing.T) {
	st := New()
	req := st.SeedRequest(spares.Request{Items: []spares.Item{{SpareID: 5, RequestedQty: 2}}})

	err := st.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error {
		return tx.SetItemDecision(ctx, req.Items[0].ID, 2, nil)
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), st.Request(req.ID).Items[0].Approved())
	require.Equal(t, 1, st.TxCount())
}

func TestFailOnInjectsError(t *testing.T) {
	st := New()
	boom := errors.New("disk full")
	st.FailOn("InsertDocument", boom)

	err := st.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error {
		_, err := tx.InsertDocument(ctx, logistics.Document{RequestID: 1, Type: logistics.DocumentDeliveryNote})
		return err
	})
	require.ErrorIs(t, err, boom)
	require.Empty(t, st.Documents(1, logistics.DocumentDeliveryNote))
}
