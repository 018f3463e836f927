package shared

import "errors"

// Outcome maps an operation error onto a low-cardinality metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientInventory):
		return "insufficient_inventory"
	case errors.Is(err, ErrQuantityExceedsApproval):
		return "exceeds_approval"
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrUnauthenticated):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
