package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed or missing input. Never touches the database.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden means the caller lacks authority over the target location.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated means no caller identity was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrConflict signals a state conflict such as a repeated decision.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientInventory is returned when a proposal exceeds stock on hand.
	ErrInsufficientInventory = errors.New("insufficient inventory")
	// ErrQuantityExceedsApproval is returned when a receipt exceeds the approved quantity.
	ErrQuantityExceedsApproval = errors.New("quantity exceeds approval")
	// ErrConsistency marks an attempted negative ledger value. Logged and clamped, not propagated.
	ErrConsistency = errors.New("ledger consistency violation")
	// ErrPersistence wraps database failures.
	ErrPersistence = errors.New("persistence failure")
)

// InsufficientInventoryError carries the figures a caller needs to re-propose.
type InsufficientInventoryError struct {
	ItemID    int64 `json:"item_id"`
	SpareID   int64 `json:"spare_id"`
	Proposed  int64 `json:"proposed"`
	Available int64 `json:"available"`
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for spare %d (item %d): proposed %d, available %d",
		e.SpareID, e.ItemID, e.Proposed, e.Available)
}

// Is matches ErrInsufficientInventory.
func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}

// QuantityExceedsApprovalError reports a receipt above the approved quantity.
type QuantityExceedsApprovalError struct {
	SpareID  int64 `json:"spare_id"`
	Received int64 `json:"received"`
	Approved int64 `json:"approved"`
}

func (e *QuantityExceedsApprovalError) Error() string {
	return fmt.Sprintf("received quantity %d exceeds approved quantity %d for spare %d",
		e.Received, e.Approved, e.SpareID)
}

// Is matches ErrQuantityExceedsApproval.
func (e *QuantityExceedsApprovalError) Is(target error) bool {
	return target == ErrQuantityExceedsApproval
}

// Validationf builds an ErrValidation-wrapped error.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds an ErrNotFound-wrapped error.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Persistence wraps a driver error with ErrPersistence and the failing operation.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
