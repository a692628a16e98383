package usecase

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for use case layer. All of them are request-fatal.
var (
	ErrRetrievalFailed         = errors.New("retrieval failed")
	ErrGenerationFailed        = errors.New("generation failed")
	ErrSessionStoreUnavailable = errors.New("session store unavailable")
	ErrTimeout                 = errors.New("external call timed out")

	// Input errors
	ErrEmptyQuery       = errors.New("query is empty")
	ErrInvalidSessionID = errors.New("invalid session ID")
)

// Context keys for error values
const (
	SessionIDKey = "session_id"
	QueryKey     = "query"
)

// callWithTimeout runs fn under its own deadline. A failure is tagged with kind, and
// additionally with ErrTimeout when the deadline was the cause.
func callWithTimeout[T any](ctx context.Context, d time.Duration, kind error, fn func(ctx context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	v, err := fn(callCtx)
	if err == nil {
		return v, nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return v, errors.Join(ErrTimeout, kind, err)
	}
	return v, errors.Join(kind, err)
}
