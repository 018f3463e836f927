package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates manual inventory operations.
type Service struct {
	repo     RepositoryPort
	ledger   *Ledger
	recorder *movement.Recorder
	audit    AuditPort
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, ledger *Ledger, recorder *movement.Recorder, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ledger: ledger, recorder: recorder, audit: audit, validate: validator.New(), logger: logger}
}

// GetStock returns the ledger row, or a zero row for an unseen location.
func (s *Service) GetStock(ctx context.Context, spareID int64, loc location.Location) (Stock, error) {
	if spareID <= 0 || !loc.Valid() {
		return Stock{}, shared.Validationf("spare and location required")
	}
	stock, err := s.repo.GetStock(ctx, spareID, loc)
	if errors.Is(err, ErrStockNotFound) {
		return Stock{SpareID: spareID, Location: loc}, nil
	}
	return stock, err
}

// Adjust applies a signed correction to one bucket and records a completed
// ADJUSTMENT movement. Unlike Decrease it refuses to go below zero.
func (s *Service) Adjust(ctx context.Context, input AdjustmentInput) (AdjustmentResult, error) {
	if err := shared.ValidateStruct(s.validate, input); err != nil {
		return AdjustmentResult{}, err
	}
	if !input.Location.Valid() {
		return AdjustmentResult{}, shared.Validationf("adjustment location required")
	}
	qty := input.Qty
	op := movement.OperationIncrease
	if qty < 0 {
		qty = -qty
		op = movement.OperationDecrease
	}

	var result AdjustmentResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		available, err := s.ledger.Available(ctx, tx, input.SpareID, input.Location, input.Bucket)
		if err != nil {
			return err
		}
		if op == movement.OperationDecrease && available < qty {
			return &shared.InsufficientInventoryError{SpareID: input.SpareID, Proposed: qty, Available: available}
		}
		m, err := s.recorder.Create(ctx, tx, movement.CreateInput{
			Type:          movement.TypeAdjustment,
			ReferenceType: "ADJUSTMENT",
			ReferenceNo:   "ADJ-" + input.IdempotencyKey,
			Source:        input.Location,
			Destination:   input.Location,
			Bucket:        input.Bucket,
			Operation:     op,
			Status:        movement.StatusCompleted,
			Lines:         []movement.Line{{SpareID: input.SpareID, Qty: qty}},
			CreatedBy:     input.ActorID,
		})
		if err != nil {
			return err
		}
		var stock Stock
		if op == movement.OperationIncrease {
			stock, err = s.ledger.Increase(ctx, tx, input.SpareID, input.Location, qty, input.Bucket)
		} else {
			stock, err = s.ledger.Decrease(ctx, tx, input.SpareID, input.Location, qty, input.Bucket)
		}
		if err != nil {
			return err
		}
		result = AdjustmentResult{Stock: stock, Movement: m}
		return nil
	})
	if err != nil {
		return AdjustmentResult{}, err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "inventory:adjust",
			Entity:   "spare_inventory",
			EntityID: fmt.Sprintf("%d:%s", input.SpareID, input.Location),
			Meta: map[string]any{
				"bucket":      input.Bucket,
				"qty":         input.Qty,
				"reason":      input.Reason,
				"movement_id": result.Movement.ID,
			},
		}); err != nil {
			s.logger.Warn("audit adjustment failed", slog.Any("error", err))
		}
	}
	return result, nil
}
