// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/servicehub/sparecrm/internal/shared"
)

// RespondError maps the shared error taxonomy to RFC7807 responses.
func RespondError(w http.ResponseWriter, err error) {
	var insufficient *shared.InsufficientInventoryError
	var exceeds *shared.QuantityExceedsApprovalError
	switch {
	case errors.As(err, &insufficient):
		ProblemWithDetails(w, http.StatusUnprocessableEntity, "Insufficient Inventory", err.Error(), insufficient)
	case errors.As(err, &exceeds):
		ProblemWithDetails(w, http.StatusUnprocessableEntity, "Quantity Exceeds Approval", err.Error(), exceeds)
	case errors.Is(err, shared.ErrInsufficientInventory), errors.Is(err, shared.ErrQuantityExceedsApproval):
		Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
