package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

func TestWrapClassification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantKind      models.ErrorKind
		wantRetryable bool
	}{
		{"invalid input sentinel", fmt.Errorf("submit: %w", ErrInvalidInput), models.ErrKindValidation, false},
		{"dependency sentinel", fmt.Errorf("kernel: %w", ErrDependencyUnavailable), models.ErrKindDependencyUnavailable, true},
		{"deadline exceeded", fmt.Errorf("flow: %w", context.DeadlineExceeded), models.ErrKindTimeout, true},
		{"timeout by message", errors.New("request timeout after 30s"), models.ErrKindTimeout, true},
		{"connection refused by message", errors.New("dial tcp: connection refused"), models.ErrKindDependencyUnavailable, true},
		{"rate limit by message", errors.New("API status 429: rate limit exceeded"), models.ErrKindDependencyUnavailable, true},
		{"malformed by message", errors.New("malformed tool specification"), models.ErrKindValidation, false},
		{"unknown error", errors.New("something odd happened"), models.ErrKindInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Wrap(tt.err, "flow")
			if env.Kind != tt.wantKind {
				t.Errorf("Wrap(%v).Kind = %v, want %v", tt.err, env.Kind, tt.wantKind)
			}
			if env.Retryable != tt.wantRetryable {
				t.Errorf("Wrap(%v).Retryable = %v, want %v", tt.err, env.Retryable, tt.wantRetryable)
			}
			if env.Component != "flow" {
				t.Errorf("Wrap(%v).Component = %q, want flow", tt.err, env.Component)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if env := Wrap(nil, "flow"); env != nil {
		t.Errorf("Wrap(nil) = %+v, want nil", env)
	}
}

func TestWrapPassesEnvelopeThrough(t *testing.T) {
	orig := &models.ErrorEnvelope{
		Kind:      models.ErrKindTimeout,
		Message:   "budget exceeded",
		Component: "flow",
		Retryable: true,
	}
	wrapped := fmt.Errorf("coordinator: %w", orig)

	env := Wrap(wrapped, "orchestrator")
	if env != orig {
		t.Errorf("Wrap did not pass existing envelope through: got %+v", env)
	}
}
