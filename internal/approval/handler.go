package approval

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/servicehub/sparecrm/internal/platform/httpx"
	"github.com/servicehub/sparecrm/internal/shared"
)

// Handler exposes the decision endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers decision routes under a spare request.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input ApproveInput
	if err := httpx.Decode(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.RequestID = id
	input.Approver = *principal
	result, err := h.service.Approve(r.Context(), input)
	if err != nil {
		h.logger.Warn("approve spare request failed", slog.Int64("request_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input RejectInput
	if err := httpx.Decode(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.RequestID = id
	input.Approver = *principal
	result, err := h.service.Reject(r.Context(), input)
	if err != nil {
		h.logger.Warn("reject spare request failed", slog.Int64("request_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
