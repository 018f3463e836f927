package delivery

import (
	"context"

	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/logistics"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/spares"
)

// TxRepository is the transactional surface reception writes through.
type TxRepository interface {
	LockRequest(ctx context.Context, id int64) (spares.Request, error)
	inventory.Store
	movement.Store
	logistics.Store
}

// Repository reads requests and opens transactions.
type Repository interface {
	spares.Reader
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRunner is satisfied by stores whose transaction type implements TxRepository.
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
