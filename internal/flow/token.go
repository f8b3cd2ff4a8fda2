package flow

import "sync"

// CancelToken is a one-shot cancellation signal threaded through a flow
// invocation. Flows poll it at iteration boundaries and exit promptly with
// a cancelled result rather than raising.
type CancelToken struct {
	once sync.Once
	ch   chan struct{}
}

// NewCancelToken creates an unset token.
func NewCancelToken() *CancelToken {
	return &CancelToken{ch: make(chan struct{})}
}

// Cancel sets the token. Safe to call multiple times.
func (t *CancelToken) Cancel() {
	t.once.Do(func() { close(t.ch) })
}

// Cancelled reports whether the token has been set.
func (t *CancelToken) Cancelled() bool {
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the token is set.
func (t *CancelToken) Done() <-chan struct{} {
	return t.ch
}
