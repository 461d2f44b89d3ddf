package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the referenced object (or object version) does not
// exist. Callers treat it as "already absent", never as a failure.
var ErrNotFound = errors.New("object not found")

// VerificationError reports a destination object that does not match the
// source metadata recorded at listing time. Not retryable: the entry must
// never become delete-eligible on the strength of this copy.
type VerificationError struct {
	Key   string
	Field string
	Want  string
	Got   string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification of %s failed: %s mismatch (want %s, got %s)", e.Key, e.Field, e.Want, e.Got)
}

// FatalError wraps authorization and configuration failures that no retry can
// fix. A fatal error aborts the whole run instead of failing a single entry.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

func IsVerification(err error) bool {
	var verification *VerificationError
	return errors.As(err, &verification)
}
