package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		required bool
		want     Outcome
	}{
		{name: "nil", err: nil, want: OutcomeSuccess},
		{name: "fatal optional stage", err: Fatal("AUTH", "rejected", nil), want: OutcomeAbortRun},
		{name: "fatal required stage", err: Fatal("AUTH", "rejected", nil), required: true, want: OutcomeAbortRun},
		{name: "transient optional", err: Transient("layout", errors.New("timeout")), want: OutcomeDegradeUnit},
		{name: "transient required", err: Transient("abstract", errors.New("503")), required: true, want: OutcomeFailDocument},
		{name: "malformed optional", err: Malformed("translate", "got %d items, want %d", 1, 2), want: OutcomeDegradeUnit},
		{name: "canceled", err: fmt.Errorf("wrapped: %w", context.Canceled), want: OutcomeFailDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.err, tt.required); got != tt.want {
				t.Fatalf("Decide() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", Transient("op", errors.New("reset")), true},
		{"malformed", Malformed("op", "bad json"), true},
		{"extraction", Extraction("crop", errors.New("empty rect")), false},
		{"fatal", Fatal("AUTH", "401", nil), false},
		{"deadline", Transient("op", context.DeadlineExceeded), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Fatalf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFatalUnwrapsCause(t *testing.T) {
	cause := errors.New("401 unauthorized")
	err := Fatal("AUTH", "layout endpoint rejected credentials", cause)
	if !errors.Is(err, ErrFatalConfiguration) || !errors.Is(err, cause) {
		t.Fatalf("Fatal() = %v, lost a wrapped error", err)
	}
	var app *AppError
	if !errors.As(err, &app) || app.Code != "AUTH" {
		t.Fatalf("Fatal() is not an AppError with code AUTH: %v", err)
	}
}
