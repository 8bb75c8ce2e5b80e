package schedule

import (
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("dial tcp: connection refused")

func TestRetryPolicy_RetriesUntilMaxAttempts(t *testing.T) {
	policy := DefaultRetryPolicy()
	failure := &PublishError{Kind: FailureNetwork, Message: "connection reset"}

	for attempts := 1; attempts < policy.MaxAttempts; attempts++ {
		action := policy.NextAction(attempts, failure)
		if !action.Retry {
			t.Errorf("Expected retry on attempt %d of %d", attempts, policy.MaxAttempts)
		}
		if action.Delay <= 0 {
			t.Errorf("Expected positive delay on attempt %d, got %s", attempts, action.Delay)
		}
	}

	action := policy.NextAction(policy.MaxAttempts, failure)
	if action.Retry {
		t.Errorf("Expected give up once attempts reach max (%d)", policy.MaxAttempts)
	}
}

func TestRetryPolicy_BackoffDoublesAndCaps(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 10,
		BaseDelay:   30 * time.Second,
		MaxDelay:    4 * time.Minute,
	}
	failure := &PublishError{Kind: FailureServerError, Message: "502"}

	expected := []time.Duration{
		30 * time.Second,  // 1st failure
		time.Minute,       // 2nd
		2 * time.Minute,   // 3rd
		4 * time.Minute,   // 4th
		4 * time.Minute,   // 5th, capped
	}

	for i, want := range expected {
		action := policy.NextAction(i+1, failure)
		if !action.Retry {
			t.Fatalf("Expected retry on attempt %d", i+1)
		}
		if action.Delay != want {
			t.Errorf("Attempt %d: expected delay %s, got %s", i+1, want, action.Delay)
		}
	}
}

func TestRetryPolicy_PermanentFailureShortCircuits(t *testing.T) {
	policy := DefaultRetryPolicy()

	for _, kind := range []FailureKind{FailureInvalidContent, FailureAuthRevoked, FailureRejected} {
		action := policy.NextAction(1, &PublishError{Kind: kind, Message: "permanent"})
		if action.Retry {
			t.Errorf("Expected give up for %s even with attempts remaining", kind)
		}
	}
}

func TestFailureKind_Retryable(t *testing.T) {
	retryable := []FailureKind{FailureNetwork, FailureTimeout, FailureRateLimited, FailureServerError}
	permanent := []FailureKind{FailureInvalidContent, FailureAuthRevoked, FailureRejected}

	for _, kind := range retryable {
		if !kind.Retryable() {
			t.Errorf("Expected %s to be retryable", kind)
		}
	}
	for _, kind := range permanent {
		if kind.Retryable() {
			t.Errorf("Expected %s to be permanent", kind)
		}
	}
}

func TestAsPublishError_WrapsUnknownErrors(t *testing.T) {
	pe := AsPublishError(&PublishError{Kind: FailureAuthRevoked, Message: "token revoked"})
	if pe.Kind != FailureAuthRevoked {
		t.Errorf("Expected typed error to pass through, got kind %s", pe.Kind)
	}

	pe = AsPublishError(errTest)
	if pe.Kind != FailureNetwork {
		t.Errorf("Expected unknown error to map to network failure, got %s", pe.Kind)
	}
	if pe.Message != errTest.Error() {
		t.Errorf("Expected message %q, got %q", errTest.Error(), pe.Message)
	}
}
