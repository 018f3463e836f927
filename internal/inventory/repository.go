package inventory

import (
	"context"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/movement"
)

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	Store
	movement.Store
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	GetStock(ctx context.Context, spareID int64, loc location.Location) (Stock, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRunner is satisfied by concrete stores whose transaction handle implements TxRepository.
type TxRunner[T TxRepository] interface {
	GetStock(ctx context.Context, spareID int64, loc location.Location) (Stock, error)
	WithTx(ctx context.Context, fn func(context.Context, T) error) error
}

type repository[T TxRepository] struct {
	runner TxRunner[T]
}

// NewRepository adapts a concrete store to RepositoryPort.
func NewRepository[T TxRepository](runner TxRunner[T]) RepositoryPort {
	return &repository[T]{runner: runner}
}

func (r *repository[T]) GetStock(ctx context.Context, spareID int64, loc location.Location) (Stock, error) {
	return r.runner.GetStock(ctx, spareID, loc)
}

func (r *repository[T]) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.runner.WithTx(ctx, func(ctx context.Context, tx T) error {
		return fn(ctx, tx)
	})
}
