package approval

import (
	"context"

	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/logistics"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/spares"
)

// TxRepository is everything an approval touches inside its transaction.
type TxRepository interface {
	spares.TxStore
	inventory.Store
	movement.Store
	logistics.Store
}

// Repository is the port used by Service.
type Repository interface {
	spares.Reader
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRunner is satisfied by concrete stores whose transaction handle implements TxRepository.
type TxRunner[T TxRepository] interface {
	spares.Reader
	WithTx(ctx context.Context, fn func(context.Context, T) error) error
}

type repository[T TxRepository] struct {
	runner TxRunner[T]
}

// NewRepository adapts a concrete store to Repository.
func NewRepository[T TxRepository](runner TxRunner[T]) Repository {
	return &repository[T]{runner: runner}
}

func (r *repository[T]) GetRequest(ctx context.Context, id int64) (spares.Request, error) {
	return r.runner.GetRequest(ctx, id)
}

func (r *repository[T]) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.runner.WithTx(ctx, func(ctx context.Context, tx T) error {
		return fn(ctx, tx)
	})
}
