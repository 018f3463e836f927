package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/logistics"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/shared"
	"github.com/servicehub/sparecrm/internal/spares"
)

const referenceDeliveryNote = "DELIVERY_NOTE"

// Dependencies groups collaborators of Service. Idempotency, Audit and
// Metrics are optional.
type Dependencies struct {
	Repository  Repository
	Ledger      *inventory.Ledger
	Recorder    *movement.Recorder
	Idempotency IdempotencyPort
	Audit       AuditPort
	Metrics     Metrics
	Logger      *slog.Logger
}

// Service records deliveries arriving at their destination.
type Service struct {
	deps     Dependencies
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Ledger == nil {
		deps.Ledger = inventory.NewLedger(logger)
	}
	if deps.Recorder == nil {
		deps.Recorder = movement.NewRecorder()
	}
	return &Service{deps: deps, validate: validator.New(), logger: logger}
}

// Receive completes the movement behind the request's posted delivery note.
// When approval already moved the stock only the movement and document
// change state; a movement missing from older approvals is created and the
// ledger transfer applied now.
func (s *Service) Receive(ctx context.Context, input ReceiveInput) (Result, error) {
	result, err := s.receive(ctx, input)
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordReception(shared.Outcome(err), result.Created)
	}
	return result, err
}

func (s *Service) receive(ctx context.Context, input ReceiveInput) (result Result, err error) {
	if input.UserID <= 0 {
		return Result{}, shared.ErrUnauthenticated
	}
	if input.DocumentType == "" {
		input.DocumentType = logistics.DocumentDeliveryNote
	}
	if err := shared.ValidateStruct(s.validate, input); err != nil {
		return Result{}, err
	}
	if input.DocumentType != logistics.DocumentDeliveryNote {
		return Result{}, shared.Validationf("deliveries are received against %s documents, got %q", logistics.DocumentDeliveryNote, input.DocumentType)
	}
	if !input.ReceivingLocation.Valid() {
		return Result{}, shared.Validationf("receiving location required")
	}

	req, err := s.deps.Repository.GetRequest(ctx, input.RequestID)
	if err != nil {
		return Result{}, err
	}
	flow, err := req.Flow()
	if err != nil {
		return Result{}, err
	}
	if input.ReceivingLocation != flow.To {
		return Result{}, shared.Validationf("request %d delivers to %s, not %s", req.ID, flow.To, input.ReceivingLocation)
	}
	received := totalsBySpare(input.Items)
	if err := checkReceivable(req, received); err != nil {
		return Result{}, err
	}

	if input.IdempotencyKey != "" && s.deps.Idempotency != nil {
		if err := s.deps.Idempotency.CheckAndInsert(ctx, input.IdempotencyKey, IdempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Result{}, fmt.Errorf("%w: delivery already submitted with this idempotency key", shared.ErrConflict)
			}
			return Result{}, err
		}
		defer func() {
			if err == nil {
				return
			}
			if delErr := s.deps.Idempotency.Delete(ctx, input.IdempotencyKey); delErr != nil {
				s.logger.Warn("release idempotency key failed", slog.String("key", input.IdempotencyKey), slog.Any("error", delErr))
			}
		}()
	}

	lines := make([]movement.Line, 0, len(input.Items))
	for _, it := range input.Items {
		lines = append(lines, movement.Line{SpareID: it.SpareID, Qty: it.Qty, Condition: it.Condition, CartonNumber: it.CartonNumber})
	}
	transfer := make([]inventory.Line, 0, len(received))
	for spareID, qty := range received {
		transfer = append(transfer, inventory.Line{SpareID: spareID, Qty: qty})
	}

	result = Result{RequestID: req.ID}
	err = s.deps.Repository.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		if err := checkReceivable(locked, received); err != nil {
			return err
		}
		doc, err := tx.FindDocumentForUpdate(ctx, locked.ID, input.DocumentType, logistics.StatusPosted)
		if err != nil {
			return err
		}
		if input.DocumentNumber != "" && input.DocumentNumber != doc.Number {
			s.logger.Warn("delivery document number mismatch",
				slog.Int64("request_id", locked.ID),
				slog.String("submitted", input.DocumentNumber),
				slog.String("posted", doc.Number))
		}

		m, created, err := s.deps.Recorder.FindOrCreate(ctx, tx, movement.CreateInput{
			Type:          flow.MovementType,
			ReferenceType: referenceDeliveryNote,
			ReferenceNo:   doc.Number,
			Source:        flow.From,
			Destination:   flow.To,
			Bucket:        flow.Bucket,
			Operation:     movement.OperationDecrease,
			Lines:         lines,
			CreatedBy:     input.UserID,
		})
		if err != nil {
			return err
		}
		if created {
			result.InventoryDelta, err = s.deps.Ledger.Transfer(ctx, tx, flow.From, flow.To, flow.Bucket, transfer)
			if err != nil {
				return err
			}
		}
		if m, err = s.deps.Recorder.Complete(ctx, tx, m, input.UserID); err != nil {
			return err
		}
		if err := tx.UpdateDocumentStatus(ctx, doc.ID, logistics.StatusCompleted); err != nil {
			return err
		}
		result.DocumentNumber = doc.Number
		result.Movement = m
		result.Created = created
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("delivery received",
		slog.Int64("request_id", req.ID),
		slog.String("document_number", result.DocumentNumber),
		slog.Int64("movement_id", result.Movement.ID),
		slog.Bool("movement_created", result.Created))
	if s.deps.Audit != nil {
		if err := s.deps.Audit.Record(ctx, shared.AuditLog{
			ActorID:  input.UserID,
			Action:   "spare_request:receive",
			Entity:   spares.EntityTypeSpareRequest,
			EntityID: strconv.FormatInt(req.ID, 10),
			Meta: map[string]any{
				"document_number":  result.DocumentNumber,
				"movement_id":      result.Movement.ID,
				"movement_created": result.Created,
			},
		}); err != nil {
			s.logger.Warn("audit reception failed", slog.Int64("request_id", req.ID), slog.Any("error", err))
		}
	}
	return result, nil
}

func totalsBySpare(items []ReceiveItem) map[int64]int64 {
	out := make(map[int64]int64, len(items))
	for _, it := range items {
		out[it.SpareID] += it.Qty
	}
	return out
}

// checkReceivable rejects the whole receipt when any spare exceeds its
// approved quantity.
func checkReceivable(req spares.Request, received map[int64]int64) error {
	if req.Status != spares.StatusApprovedByRSM {
		return fmt.Errorf("%w: request %d is %s", shared.ErrConflict, req.ID, req.Status)
	}
	for spareID, qty := range received {
		item, ok := req.ItemBySpare(spareID)
		if !ok {
			return fmt.Errorf("%w: spare %d on request %d", spares.ErrItemNotFound, spareID, req.ID)
		}
		if approved := item.Approved(); qty > approved {
			return &shared.QuantityExceedsApprovalError{SpareID: spareID, Received: qty, Approved: approved}
		}
	}
	return nil
}
