package safe

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/secmon-lab/ariadne/pkg/utils/logging"
)

// Close closes closer and logs a failure with the closer's type. Nil and typed-nil
// pointers are skipped, so deferred cleanup after a failed constructor is harmless.
func Close(ctx context.Context, closer io.Closer) {
	if isNil(closer) {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("failed to close resource",
			"type", fmt.Sprintf("%T", closer),
			"error", err.Error())
	}
}

// Write writes data to w and logs errors and short writes. Response bodies use it
// after the status line has already gone out, when there is nobody left to return an error to.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if isNil(w) {
		return
	}
	n, err := w.Write(data)
	if err != nil {
		logging.From(ctx).Warn("failed to write response", "error", err.Error(), "written", n, "size", len(data))
		return
	}
	if n < len(data) {
		logging.From(ctx).Warn("short write", "written", n, "size", len(data))
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
