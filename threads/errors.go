package threads

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation matches local and remote validation failures.
	ErrValidation = errors.New("validation failed")
	// ErrTransient matches remote failures that may succeed on retry.
	ErrTransient = errors.New("transient remote error")
	// ErrPermanent matches remote failures that cannot succeed on retry.
	ErrPermanent = errors.New("permanent remote error")
	// ErrNotFound matches deleted or nonexistent objects.
	ErrNotFound = errors.New("not found")
	// ErrPublishFailed matches container creation that ran out of attempts.
	ErrPublishFailed = errors.New("publish failed")
	// ErrDraftConsumed is returned when a draft is published twice.
	ErrDraftConsumed = errors.New("draft already published")
)

// ValidationError captures an invariant violation detected before any remote call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Class is the retry classification of a remote failure.
type Class int

const (
	ClassPermanent Class = iota
	ClassTransient
	ClassNotFound
	ClassValidation
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassNotFound:
		return "not_found"
	case ClassValidation:
		return "validation"
	default:
		return "permanent"
	}
}

// RemoteError is returned by a Transport for every failed call. It is
// classified exactly once, when the transport builds it.
type RemoteError struct {
	Class      Class
	Method     string
	Path       string
	StatusCode int
	Payload    APIError
	Err        error
}

func (e *RemoteError) Error() string {
	parts := make([]string, 0, 3)
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status %d", e.StatusCode))
	}
	if msg := e.Payload.String(); msg != "" {
		parts = append(parts, msg)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		parts = append(parts, "request failed")
	}
	return fmt.Sprintf("%s %s (%s): %s", e.Method, e.Path, e.Class, strings.Join(parts, "; "))
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrTransient:
		return e.Class == ClassTransient
	case ErrPermanent:
		return e.Class == ClassPermanent
	case ErrNotFound:
		return e.Class == ClassNotFound
	case ErrValidation:
		return e.Class == ClassValidation
	}
	return false
}

// PublishFailedError wraps the last transient failure once container
// creation has used every attempt.
type PublishFailedError struct {
	Attempts int
	Err      error
}

func (e *PublishFailedError) Error() string {
	return fmt.Sprintf("publish failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *PublishFailedError) Unwrap() error { return e.Err }

func (e *PublishFailedError) Is(target error) bool { return target == ErrPublishFailed }

// NotFoundError is returned when operating on a deleted or nonexistent post.
type NotFoundError struct {
	ID  string
	Err error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("post %s not found: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("post %s not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IsRetryable reports whether err was classified as transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
