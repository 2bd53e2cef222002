package service

import (
	"errors"
	"fmt"
)

// Failure kinds of a synchronization pass. Callers match them with errors.Is;
// the underlying cause stays wrapped alongside.
var (
	ErrRemoteUnavailable = errors.New("remote unavailable")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrMalformedRecord   = errors.New("malformed record")
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmptyLabel       = errors.New("label id is required")
	ErrMissingCode      = errors.New("authorization code is required")
)

func remoteError(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrRemoteUnavailable, op, err)
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrStoreUnavailable, op, err)
}
