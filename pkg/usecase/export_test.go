package usecase

import (
	"context"
	"time"
)

// CallWithTimeoutForTest exposes callWithTimeout for string results
func CallWithTimeoutForTest(ctx context.Context, d time.Duration, kind error, fn func(ctx context.Context) (string, error)) (string, error) {
	return callWithTimeout(ctx, d, kind, fn)
}
