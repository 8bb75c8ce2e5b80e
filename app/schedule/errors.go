package schedule

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an operation against a nonexistent scheduled post.
var ErrNotFound = errors.New("scheduled post not found")

// ErrConflict reports a guarded write that found the record in a different
// status than expected, e.g. a publish racing a concurrent cancel.
var ErrConflict = errors.New("scheduled post changed concurrently")

// ErrNotEditable reports an edit of content or scheduled time on a post
// that has left the pending status.
var ErrNotEditable = errors.New("scheduled post can only be edited while pending")

// InvalidTransitionError reports an illegal status change. The record is
// left untouched.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// FailureKind classifies a publish failure for retry decisions.
type FailureKind string

const (
	FailureNetwork        FailureKind = "network"
	FailureTimeout        FailureKind = "timeout"
	FailureRateLimited    FailureKind = "rate_limited"
	FailureServerError    FailureKind = "server_error"
	FailureInvalidContent FailureKind = "invalid_content"
	FailureAuthRevoked    FailureKind = "auth_revoked"
	FailureRejected       FailureKind = "rejected"
)

// Retryable reports whether another attempt can reasonably succeed.
func (k FailureKind) Retryable() bool {
	switch k {
	case FailureNetwork, FailureTimeout, FailureRateLimited, FailureServerError:
		return true
	}
	return false
}

// PublishError is the typed failure returned by publish clients.
type PublishError struct {
	Kind    FailureKind
	Message string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed (%s): %s", e.Kind, e.Message)
}

func (e *PublishError) Retryable() bool {
	return e.Kind.Retryable()
}

// AsPublishError unwraps err into a PublishError, treating unknown errors
// as retryable network failures so transient problems are not fatal.
func AsPublishError(err error) *PublishError {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe
	}
	return &PublishError{Kind: FailureNetwork, Message: err.Error()}
}
