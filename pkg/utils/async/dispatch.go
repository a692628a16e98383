package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/utils/errutil"
	"github.com/secmon-lab/ariadne/pkg/utils/logging"
)

// Dispatch executes handler in a new goroutine detached from the caller's cancellation.
// The logger stored in ctx is carried over. Errors and panics are logged, never propagated.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.WithoutCancel(ctx), logging.From(ctx))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
				errutil.Report(bgCtx, goerr.New("panic in async handler", goerr.V("panic", r)))
			}
		}()

		if err := handler(bgCtx); err != nil {
			_ = errutil.Handle(bgCtx, err, "async handler failed")
		}
	}()
}
