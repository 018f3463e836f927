package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/platform/httpx"
	"github.com/servicehub/sparecrm/internal/shared"
)

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{spareID}", h.handleStock)
	r.Post("/adjustments", h.handleAdjustment)
}

func (h *Handler) handleStock(w http.ResponseWriter, r *http.Request) {
	spareID, err := httpx.PathInt64(r, "spareID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	locID, err := strconv.ParseInt(q.Get("location_id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.Validationf("invalid location_id %q", q.Get("location_id")))
		return
	}
	loc, err := location.Parse(q.Get("location_type"), locID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	stock, err := h.service.GetStock(r.Context(), spareID, loc)
	if err != nil {
		h.logger.Error("get stock failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stock)
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	if principal.Role != shared.RoleAdmin {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	key, err := uuid.Parse(r.Header.Get("Idempotency-Key"))
	if err != nil {
		httpx.RespondError(w, shared.Validationf("Idempotency-Key header must be a UUID"))
		return
	}
	var input AdjustmentInput
	if err := httpx.Decode(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.ActorID = principal.UserID
	input.IdempotencyKey = key.String()
	result, err := h.service.Adjust(r.Context(), input)
	if err != nil {
		h.logger.Warn("post adjustment failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}
