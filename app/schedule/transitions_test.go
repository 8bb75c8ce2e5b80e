package schedule

import (
	"errors"
	"testing"
)

func TestCanTransition_LegalMoves(t *testing.T) {
	legal := []struct {
		from Status
		to   Status
	}{
		{StatusPending, StatusPublished},
		{StatusPending, StatusFailed},
		{StatusPending, StatusCancelled},
		{StatusFailed, StatusPending},
		{StatusFailed, StatusCancelled},
	}

	for _, tc := range legal {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("Expected %s -> %s to be legal", tc.from, tc.to)
		}
	}
}

func TestCanTransition_TerminalStatesHaveNoExits(t *testing.T) {
	all := []Status{StatusPending, StatusPublished, StatusFailed, StatusCancelled}

	for _, terminal := range []Status{StatusPublished, StatusCancelled} {
		for _, to := range all {
			if CanTransition(terminal, to) {
				t.Errorf("Expected %s -> %s to be illegal", terminal, to)
			}
		}
	}
}

func TestCanTransition_IllegalMoves(t *testing.T) {
	illegal := []struct {
		from Status
		to   Status
	}{
		{StatusPending, StatusPending},
		{StatusFailed, StatusPublished},
		{StatusFailed, StatusFailed},
	}

	for _, tc := range illegal {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("Expected %s -> %s to be illegal", tc.from, tc.to)
		}
	}
}

func TestValidateTransition_ErrorDetails(t *testing.T) {
	err := ValidateTransition(StatusPublished, StatusCancelled)
	if err == nil {
		t.Fatal("Expected error for published -> cancelled")
	}

	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidTransitionError, got %T", err)
	}
	if invalid.From != StatusPublished || invalid.To != StatusCancelled {
		t.Errorf("Expected error to carry published -> cancelled, got %s -> %s", invalid.From, invalid.To)
	}

	if err := ValidateTransition(StatusFailed, StatusPending); err != nil {
		t.Errorf("Expected failed -> pending to be legal, got %v", err)
	}
}
