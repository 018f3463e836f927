package spares

import "context"

// Reader loads requests outside a transaction.
type Reader interface {
	GetRequest(ctx context.Context, id int64) (Request, error)
}

// TxStore exposes transactional request operations.
type TxStore interface {
	// LockRequest loads the request with its items and locks the header row.
	LockRequest(ctx context.Context, id int64) (Request, error)
	InsertRequest(ctx context.Context, req Request) (int64, error)
	InsertItem(ctx context.Context, item Item) (int64, error)
	SetItemDecision(ctx context.Context, itemID, approvedQty int64, rejectionReason *string) error
	// UpdateRequestStatus creates the status row lazily when it is missing.
	UpdateRequestStatus(ctx context.Context, id int64, status Status) error
	InsertApproval(ctx context.Context, approval Approval) (int64, error)
	GetSpareParts(ctx context.Context, ids []int64) (map[int64]SparePart, error)
}

// Repository is the port used by Service.
type Repository interface {
	Reader
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
}

// TxRunner is satisfied by concrete stores whose transaction handle implements TxStore.
type TxRunner[T TxStore] interface {
	Reader
	WithTx(ctx context.Context, fn func(context.Context, T) error) error
}

type repository[T TxStore] struct {
	runner TxRunner[T]
}

// NewRepository adapts a concrete store to Repository.
func NewRepository[T TxStore](runner TxRunner[T]) Repository {
	return &repository[T]{runner: runner}
}

func (r *repository[T]) GetRequest(ctx context.Context, id int64) (Request, error) {
	return r.runner.GetRequest(ctx, id)
}

func (r *repository[T]) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return r.runner.WithTx(ctx, func(ctx context.Context, tx T) error {
		return fn(ctx, tx)
	})
}
