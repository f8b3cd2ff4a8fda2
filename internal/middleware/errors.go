// Package middleware normalizes failures into a common error envelope and
// broadcasts lifecycle events to external listeners.
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

// Sentinel errors raised by the core. Components wrap these with context;
// Wrap classifies through the chain with errors.Is.
var (
	// ErrInvalidInput marks a caller mistake: empty or malformed payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrQueueSaturated marks a submission rejected at queue capacity.
	ErrQueueSaturated = errors.New("queue saturated")
	// ErrDependencyUnavailable marks an external collaborator being down.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// dependencyHints are message fragments that identify an unavailable
// external collaborator when the error chain carries no sentinel.
var dependencyHints = []string{
	"connection refused",
	"no such host",
	"service unavailable",
	"overloaded",
	"rate limit",
	"status 429",
	"status 502",
	"status 503",
}

// Wrap maps any error raised inside a flow or component to a normalized
// ErrorEnvelope. An error that already is an envelope passes through
// unchanged so classification survives nested wrapping.
func Wrap(err error, component string) *models.ErrorEnvelope {
	if err == nil {
		return nil
	}

	var env *models.ErrorEnvelope
	if errors.As(err, &env) {
		return env
	}

	kind := classify(err)
	return &models.ErrorEnvelope{
		Kind:      kind,
		Message:   err.Error(),
		Component: component,
		Retryable: retryable(kind),
	}
}

// classify determines the error kind from the chain and, failing that,
// from message inspection.
func classify(err error) models.ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return models.ErrKindValidation
	case errors.Is(err, ErrQueueSaturated):
		// Saturation is surfaced to submitters directly; if it ever reaches
		// a terminal record it is a dependency-style transient.
		return models.ErrKindDependencyUnavailable
	case errors.Is(err, ErrDependencyUnavailable):
		return models.ErrKindDependencyUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return models.ErrKindTimeout
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return models.ErrKindTimeout
	}
	for _, hint := range dependencyHints {
		if strings.Contains(msg, hint) {
			return models.ErrKindDependencyUnavailable
		}
	}
	if strings.Contains(msg, "invalid") || strings.Contains(msg, "malformed") {
		return models.ErrKindValidation
	}
	return models.ErrKindInternal
}

// retryable returns the retry hint for an error kind.
func retryable(kind models.ErrorKind) bool {
	switch kind {
	case models.ErrKindTimeout, models.ErrKindDependencyUnavailable:
		return true
	default:
		return false
	}
}
