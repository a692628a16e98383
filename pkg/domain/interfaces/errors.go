package interfaces

import "errors"

// ErrNotFound is wrapped by every repository backend when a lookup has no result
var ErrNotFound = errors.New("not found")
