package spares

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/shared"
)

// CreateItemInput is one requested line.
type CreateItemInput struct {
	SpareID int64 `json:"spare_id" validate:"required,gt=0"`
	Qty     int64 `json:"qty" validate:"required,gt=0"`
}

// CreateInput describes a new spare request.
type CreateInput struct {
	Type        RequestType       `json:"type" validate:"required"`
	Source      location.Location `json:"requested_source"`
	RequestedTo location.Location `json:"requested_to"`
	Items       []CreateItemInput `json:"items" validate:"required,min=1,dive"`
	CreatedBy   int64             `json:"-" validate:"required,gt=0"`
}

// Service creates and reads spare requests.
type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, validate: validator.New(), logger: logger, now: time.Now}
}

// Create validates direction and items, then persists the request as pending.
func (s *Service) Create(ctx context.Context, input CreateInput) (Request, error) {
	if err := shared.ValidateStruct(s.validate, input); err != nil {
		return Request{}, err
	}
	if err := ValidateDirection(input.Type, input.Source, input.RequestedTo); err != nil {
		return Request{}, err
	}
	seen := make(map[int64]struct{}, len(input.Items))
	for _, it := range input.Items {
		if _, dup := seen[it.SpareID]; dup {
			return Request{}, shared.Validationf("spare %d requested twice", it.SpareID)
		}
		seen[it.SpareID] = struct{}{}
	}

	now := s.now().UTC()
	req := Request{
		Type:        input.Type,
		Source:      input.Source,
		RequestedTo: input.RequestedTo,
		Status:      StatusPending,
		CreatedBy:   input.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		id, err := tx.InsertRequest(ctx, req)
		if err != nil {
			return err
		}
		req.ID = id
		for _, in := range input.Items {
			item := Item{RequestID: id, SpareID: in.SpareID, RequestedQty: in.Qty}
			item.ID, err = tx.InsertItem(ctx, item)
			if err != nil {
				return err
			}
			req.Items = append(req.Items, item)
		}
		return nil
	})
	if err != nil {
		return Request{}, err
	}
	s.logger.Info("spare request created",
		slog.Int64("request_id", req.ID),
		slog.String("type", string(req.Type)),
		slog.Int("items", len(req.Items)))
	return req, nil
}

// Get returns a request with its items.
func (s *Service) Get(ctx context.Context, id int64) (Request, error) {
	if id <= 0 {
		return Request{}, shared.Validationf("request id required")
	}
	return s.repo.GetRequest(ctx, id)
}
