package domain

import (
	"errors"
	"testing"
)

func TestDecision_ErrMapsOutcomes(t *testing.T) {
	cases := []struct {
		outcome Outcome
		want    error
	}{
		{OutcomeAdmitted, nil},
		{OutcomeBypassed, nil},
		{OutcomeInvalidRequest, ErrInvalidRequest},
		{OutcomeUnauthorized, ErrUnauthorized},
		{OutcomeTooManyRequests, ErrTooManyRequests},
	}

	for _, tc := range cases {
		got := Decision{Outcome: tc.outcome}.Err()
		if !errors.Is(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.outcome, tc.want, got)
		}
		if (got == nil) != tc.outcome.Allowed() {
			t.Fatalf("%s: Allowed() disagrees with Err()", tc.outcome)
		}
	}
}

func TestIsRejection(t *testing.T) {
	if IsRejection(nil) {
		t.Fatalf("nil is not a rejection")
	}
	if !IsRejection(ErrTooManyRequests) {
		t.Fatalf("expected ErrTooManyRequests to be a rejection")
	}
	if IsRejection(errors.New("boom")) {
		t.Fatalf("arbitrary errors are not rejections")
	}
}
