package points

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("points: not found")
	ErrAlreadyExists = errors.New("points: already exists")
	ErrInvalidInput  = errors.New("points: invalid input")
	ErrAccessDenied  = errors.New("points: access denied")

	// Point type errors
	ErrTypeNotFound = errors.New("points: point type not found")
	ErrTypeInUse    = errors.New("points: point type is in use by balances")
	ErrTypeExists   = errors.New("points: point type already exists")

	// Balance errors
	ErrBalanceNotFound = errors.New("points: balance not found")
	ErrOwnerNotFound   = errors.New("points: owner entity not found")

	// Mutation errors
	ErrInvalidQuantity    = errors.New("points: quantity must be a finite number")
	ErrInvalidTransfer    = errors.New("points: only a positive quantity can be transferred between distinct owners")
	ErrInsufficientPoints = errors.New("points: source balance has insufficient points")

	// Revision errors
	ErrRevisionNotFound = errors.New("points: revision not found")
	ErrCurrentRevision  = errors.New("points: current revision cannot be deleted")
	ErrRevisionConflict = errors.New("points: revision write conflicted with a concurrent mutation")

	// Store errors
	ErrStoreNotReady     = errors.New("points: store not ready")
	ErrStoreClosed       = errors.New("points: store is closed")
	ErrTransactionFailed = errors.New("points: transaction failed")
)

// ValidationError represents a validation failure with details. It unwraps
// to ErrInvalidInput so callers can classify it with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("points: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap makes ValidationError match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTypeNotFound) ||
		errors.Is(err, ErrBalanceNotFound) ||
		errors.Is(err, ErrOwnerNotFound) ||
		errors.Is(err, ErrRevisionNotFound)
}

// IsClientError returns true if the error is the caller's fault: bad input,
// a failed precondition, or an unresolvable reference. Transports map these
// to 400-class responses; ErrAccessDenied is classified separately.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidTransfer) ||
		errors.Is(err, ErrInsufficientPoints) ||
		errors.Is(err, ErrTypeNotFound) ||
		errors.Is(err, ErrOwnerNotFound) ||
		errors.Is(err, ErrCurrentRevision) ||
		errors.Is(err, ErrRevisionNotFound)
}

// IsStorageFailure returns true if the error came from the underlying store
// rather than the ledger's own rules. The core never retries these beyond
// its bounded conflict loop; surfacing them is the caller's signal to back
// off or fail the request.
func IsStorageFailure(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrStoreClosed) ||
		errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, ErrRevisionConflict)
}
