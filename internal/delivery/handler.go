package delivery

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servicehub/sparecrm/internal/platform/httpx"
	"github.com/servicehub/sparecrm/internal/shared"
)

// IdempotencyHeader carries an optional client-generated UUID.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes the reception endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers reception routes under a spare request.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{id}/receive", h.receive)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
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
	var input ReceiveInput
	if raw := r.Header.Get(IdempotencyHeader); raw != "" {
		key, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, shared.Validationf("%s header must be a UUID", IdempotencyHeader))
			return
		}
		input.IdempotencyKey = key.String()
	}
	if err := httpx.Decode(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.RequestID = id
	input.UserID = principal.UserID
	result, err := h.service.Receive(r.Context(), input)
	if err != nil {
		h.logger.Warn("receive delivery failed", slog.Int64("request_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
