package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/logistics"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/platform/cache"
	"github.com/servicehub/sparecrm/internal/shared"
	"github.com/servicehub/sparecrm/internal/spares"
)

const (
	approvalLevel         = 1
	referenceDeliveryNote = "DELIVERY_NOTE"
	defaultLockTTL        = 30 * time.Second
)

// Dependencies groups collaborators of Service. Locker, Audit, Notifier and
// Metrics are optional.
type Dependencies struct {
	Repository Repository
	Authorizer Authorizer
	Ledger     *inventory.Ledger
	Recorder   *movement.Recorder
	Generator  *logistics.Generator
	Locker     Locker
	Audit      AuditPort
	Notifier   Notifier
	Metrics    Metrics
	Logger     *slog.Logger
	LockTTL    time.Duration
}

// Service runs approve and reject decisions.
type Service struct {
	deps     Dependencies
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service.
func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = defaultLockTTL
	}
	if deps.Ledger == nil {
		deps.Ledger = inventory.NewLedger(logger)
	}
	if deps.Recorder == nil {
		deps.Recorder = movement.NewRecorder()
	}
	if deps.Generator == nil {
		deps.Generator = logistics.NewGenerator()
	}
	return &Service{deps: deps, validate: validator.New(), logger: logger, now: time.Now}
}

type decision struct {
	ItemDecision
	item spares.Item
}

// Approve validates authority and stock, then atomically records the
// decision, the paper trail, the movement and both ledger deltas.
func (s *Service) Approve(ctx context.Context, input ApproveInput) (Result, error) {
	result, err := s.approve(ctx, input)
	s.recordOutcome("approve", err)
	return result, err
}

func (s *Service) approve(ctx context.Context, input ApproveInput) (Result, error) {
	if err := shared.ValidateStruct(s.validate, input); err != nil {
		return Result{}, err
	}
	seen := make(map[int64]struct{}, len(input.Items))
	for _, d := range input.Items {
		if _, dup := seen[d.ItemID]; dup {
			return Result{}, shared.Validationf("item %d decided twice", d.ItemID)
		}
		seen[d.ItemID] = struct{}{}
	}
	req, err := s.precheck(ctx, input.RequestID, input.Approver)
	if err != nil {
		return Result{}, err
	}
	for _, d := range input.Items {
		if _, ok := req.FindItem(d.ItemID); !ok {
			return Result{}, fmt.Errorf("%w: item %d on request %d", spares.ErrItemNotFound, d.ItemID, req.ID)
		}
	}
	flow, err := req.Flow()
	if err != nil {
		return Result{}, err
	}
	release, err := s.lock(ctx, req.ID)
	if err != nil {
		return Result{}, err
	}
	defer release()

	approver := input.Approver
	result := Result{RequestID: req.ID, Status: spares.StatusApprovedByRSM, Fulfiller: flow.From}
	var total int64
	err = s.deps.Repository.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		if locked.Status != spares.StatusPending {
			return fmt.Errorf("%w: request %d is %s", shared.ErrConflict, locked.ID, locked.Status)
		}

		decisions := make([]decision, 0, len(input.Items))
		for _, d := range input.Items {
			item, ok := locked.FindItem(d.ItemID)
			if !ok {
				return fmt.Errorf("%w: item %d on request %d", spares.ErrItemNotFound, d.ItemID, locked.ID)
			}
			decisions = append(decisions, decision{ItemDecision: d, item: item})
		}
		sort.Slice(decisions, func(i, j int) bool { return decisions[i].item.SpareID < decisions[j].item.SpareID })

		lines := make([]inventory.Line, 0, len(decisions))
		for _, d := range decisions {
			available, err := s.deps.Ledger.Available(ctx, tx, d.item.SpareID, flow.From, flow.Bucket)
			if err != nil {
				return err
			}
			if d.ApprovedQty > available {
				return &shared.InsufficientInventoryError{
					ItemID:    d.item.ID,
					SpareID:   d.item.SpareID,
					Proposed:  d.ApprovedQty,
					Available: available,
				}
			}
			final := min(d.ApprovedQty, d.item.RequestedQty, available)
			if err := tx.SetItemDecision(ctx, d.item.ID, final, nil); err != nil {
				return err
			}
			result.Items = append(result.Items, ItemResult{
				ItemID:          d.item.ID,
				SpareID:         d.item.SpareID,
				Requested:       d.item.RequestedQty,
				Proposed:        d.ApprovedQty,
				Approved:        final,
				AvailableBefore: available,
				AvailableAfter:  available - final,
			})
			if final > 0 {
				lines = append(lines, inventory.Line{SpareID: d.item.SpareID, Qty: final})
				total += final
			}
		}

		if err := tx.UpdateRequestStatus(ctx, locked.ID, spares.StatusApprovedByRSM); err != nil {
			return err
		}
		if _, err := tx.InsertApproval(ctx, spares.Approval{
			EntityType: spares.EntityTypeSpareRequest,
			EntityID:   locked.ID,
			Level:      approvalLevel,
			ApproverID: approver.UserID,
			Status:     spares.ApprovalApproved,
			Remarks:    input.Remarks,
			ApprovedAt: s.now().UTC(),
		}); err != nil {
			return err
		}
		if total == 0 {
			return nil
		}

		ids := make([]int64, 0, len(lines))
		docLines := make([]logistics.Line, 0, len(lines))
		moveLines := make([]movement.Line, 0, len(lines))
		for _, ln := range lines {
			ids = append(ids, ln.SpareID)
			docLines = append(docLines, logistics.Line{SpareID: ln.SpareID, Qty: ln.Qty})
			moveLines = append(moveLines, movement.Line{SpareID: ln.SpareID, Qty: ln.Qty, Condition: movement.ConditionFor(flow.Bucket)})
		}
		parts, err := tx.GetSpareParts(ctx, ids)
		if err != nil {
			return err
		}
		bundle, err := s.deps.Generator.Generate(locked, docLines, parts, approver.UserID)
		if err != nil {
			return err
		}
		bundle, err = logistics.Persist(ctx, tx, bundle)
		if err != nil {
			return err
		}
		m, _, err := s.deps.Recorder.FindOrCreate(ctx, tx, movement.CreateInput{
			Type:          flow.MovementType,
			ReferenceType: referenceDeliveryNote,
			ReferenceNo:   bundle.DeliveryNote.Number,
			Source:        flow.From,
			Destination:   flow.To,
			Bucket:        flow.Bucket,
			Operation:     movement.OperationDecrease,
			Lines:         moveLines,
			CreatedBy:     approver.UserID,
		})
		if err != nil {
			return err
		}
		if _, err := s.deps.Ledger.Transfer(ctx, tx, flow.From, flow.To, flow.Bucket, lines); err != nil {
			return err
		}
		result.DeliveryNote = bundle.DeliveryNote.Number
		result.MovementID = m.ID
		result.Documents = &bundle
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("spare request approved",
		slog.Int64("request_id", req.ID),
		slog.Int64("approver_id", approver.UserID),
		slog.Int64("total_qty", total),
		slog.String("delivery_note", result.DeliveryNote))
	s.audit(ctx, approver.UserID, "spare_request:approve", req.ID, map[string]any{
		"delivery_note": result.DeliveryNote,
		"movement_id":   result.MovementID,
		"total_qty":     total,
		"remarks":       input.Remarks,
	})
	if s.deps.Metrics != nil {
		s.deps.Metrics.AddApprovedUnits(total)
	}
	if total > 0 && s.deps.Notifier != nil {
		if err := s.deps.Notifier.NotifyDeliveryNotePosted(ctx, req.ID, result.DeliveryNote, result.MovementID, total); err != nil {
			s.logger.Warn("enqueue delivery note notification failed",
				slog.Int64("request_id", req.ID),
				slog.String("delivery_note", result.DeliveryNote),
				slog.Any("error", err))
		}
	}
	return result, nil
}

// Reject zeroes every item and records the reason. It never touches inventory.
func (s *Service) Reject(ctx context.Context, input RejectInput) (Result, error) {
	result, err := s.reject(ctx, input)
	s.recordOutcome("reject", err)
	return result, err
}

func (s *Service) reject(ctx context.Context, input RejectInput) (Result, error) {
	if err := shared.ValidateStruct(s.validate, input); err != nil {
		return Result{}, err
	}
	req, err := s.precheck(ctx, input.RequestID, input.Approver)
	if err != nil {
		return Result{}, err
	}
	release, err := s.lock(ctx, req.ID)
	if err != nil {
		return Result{}, err
	}
	defer release()

	result := Result{RequestID: req.ID, Status: spares.StatusRejectedByRSM, Fulfiller: req.RequestedTo}
	reason := input.Reason
	err = s.deps.Repository.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		if locked.Status != spares.StatusPending {
			return fmt.Errorf("%w: request %d is %s", shared.ErrConflict, locked.ID, locked.Status)
		}
		for _, item := range locked.Items {
			if err := tx.SetItemDecision(ctx, item.ID, 0, &reason); err != nil {
				return err
			}
			result.Items = append(result.Items, ItemResult{ItemID: item.ID, SpareID: item.SpareID, Requested: item.RequestedQty})
		}
		if err := tx.UpdateRequestStatus(ctx, locked.ID, spares.StatusRejectedByRSM); err != nil {
			return err
		}
		_, err = tx.InsertApproval(ctx, spares.Approval{
			EntityType: spares.EntityTypeSpareRequest,
			EntityID:   locked.ID,
			Level:      approvalLevel,
			ApproverID: input.Approver.UserID,
			Status:     spares.ApprovalRejected,
			Remarks:    reason,
			ApprovedAt: s.now().UTC(),
		})
		return err
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("spare request rejected",
		slog.Int64("request_id", req.ID),
		slog.Int64("approver_id", input.Approver.UserID))
	s.audit(ctx, input.Approver.UserID, "spare_request:reject", req.ID, map[string]any{"reason": reason})
	return result, nil
}

// precheck runs every check that must pass before a transaction opens.
func (s *Service) precheck(ctx context.Context, requestID int64, approver shared.Principal) (spares.Request, error) {
	if approver.UserID <= 0 {
		return spares.Request{}, shared.ErrUnauthenticated
	}
	req, err := s.deps.Repository.GetRequest(ctx, requestID)
	if err != nil {
		return spares.Request{}, err
	}
	if !req.Source.Valid() {
		return spares.Request{}, shared.Validationf("request %d has no requester location", req.ID)
	}
	if !req.RequestedTo.Valid() {
		return spares.Request{}, shared.Validationf("request %d has no fulfilling location", req.ID)
	}
	if req.Status != spares.StatusPending {
		return spares.Request{}, fmt.Errorf("%w: request %d is %s", shared.ErrConflict, req.ID, req.Status)
	}
	if err := s.deps.Authorizer.AuthorizeApproval(ctx, approver, req.RequestedTo); err != nil {
		return spares.Request{}, err
	}
	return req, nil
}

func (s *Service) lock(ctx context.Context, requestID int64) (func(), error) {
	if s.deps.Locker == nil {
		return func() {}, nil
	}
	release, err := s.deps.Locker.Obtain(ctx, shared.DecisionLockKey(requestID), s.deps.LockTTL)
	if errors.Is(err, cache.ErrLockNotObtained) {
		return nil, fmt.Errorf("%w: request %d is being decided", shared.ErrConflict, requestID)
	}
	if err != nil {
		return nil, err
	}
	return release, nil
}

func (s *Service) audit(ctx context.Context, actorID int64, action string, requestID int64, meta map[string]any) {
	if s.deps.Audit == nil {
		return
	}
	if err := s.deps.Audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   spares.EntityTypeSpareRequest,
		EntityID: strconv.FormatInt(requestID, 10),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit decision failed", slog.Int64("request_id", requestID), slog.Any("error", err))
	}
}

func (s *Service) recordOutcome(decision string, err error) {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.RecordDecision(decision, shared.Outcome(err))
}
