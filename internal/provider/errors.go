package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by the registry when no adapter can serve
	// the requested transformation mode.
	ErrNotConfigured = errors.New("no provider configured for this transformation mode")

	// ErrNotAsync marks a status check against a provider that completes
	// synchronously and never issues task identifiers.
	ErrNotAsync = errors.New("provider does not support task status checks")

	// ErrCompletedWithoutImages indicates a logically completed task whose
	// payload held no recognizable image list. This is a protocol mismatch,
	// distinct from a provider-reported failure, and callers surface it as such.
	ErrCompletedWithoutImages = errors.New("task completed but response contained no images")
)

// ProviderError covers transport failures, non-2xx responses, and responses
// missing an expected field during submit or status checks.
type ProviderError struct {
	HTTPStatus int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("provider: status %d: %s", e.HTTPStatus, e.Message)
	}
	return "provider: " + e.Message
}
