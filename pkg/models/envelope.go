package models

// ErrorKind classifies a normalized failure.
type ErrorKind string

const (
	// ErrKindValidation is a caller mistake. Surfaced immediately, never retried.
	ErrKindValidation ErrorKind = "ValidationError"
	// ErrKindTimeout means a flow exceeded its wall-clock budget. Retryable.
	ErrKindTimeout ErrorKind = "TimeoutError"
	// ErrKindDependencyUnavailable means an external collaborator is down.
	// Retryable with backoff.
	ErrKindDependencyUnavailable ErrorKind = "DependencyUnavailable"
	// ErrKindInternal is an unexpected failure. Not retried automatically.
	ErrKindInternal ErrorKind = "InternalError"
)

// Valid returns true if the kind is a known value.
func (k ErrorKind) Valid() bool {
	switch k {
	case ErrKindValidation, ErrKindTimeout, ErrKindDependencyUnavailable, ErrKindInternal:
		return true
	default:
		return false
	}
}

// ErrorEnvelope is the normalized failure record attached to a failed task.
// Callers always receive an envelope, never a raw error.
type ErrorEnvelope struct {
	// Kind is the error classification.
	Kind ErrorKind `json:"kind"`
	// Message is the human-readable description.
	Message string `json:"message"`
	// Component names the component the failure originated in.
	Component string `json:"component"`
	// Retryable hints whether the caller may retry the task.
	Retryable bool `json:"retryable"`
}

// Error implements the error interface so an envelope can travel through
// error-returning call chains without losing its classification.
func (e *ErrorEnvelope) Error() string {
	return string(e.Kind) + ": " + e.Message
}
