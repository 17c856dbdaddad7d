package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexingFetch marks a failed or malformed response from the indexing service.
	ErrIndexingFetch = errors.New("indexing fetch failed")
	// ErrValidation marks malformed transfer input rejected before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrTransferRejected marks a transfer the signer declined to sign.
	ErrTransferRejected = errors.New("transfer rejected")
	// ErrTransferFailed marks a broadcast error or an on-chain revert.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrTokenNotOwned is returned when a transfer references a token absent from the held inventory.
	ErrTokenNotOwned = errors.New("token not in inventory")
)

// ValidationError describes which input was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports ValidationError as ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
