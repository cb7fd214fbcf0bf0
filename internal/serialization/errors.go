package serialization

import (
	"errors"
	"fmt"
)

// ErrFormat is the category for structurally invalid checkpoints: bad
// magic, unsupported version, truncated data, or out-of-range header
// fields. Callers match it with errors.Is and typically fall back to
// initializing a fresh network.
var ErrFormat = errors.New("invalid checkpoint format")

// Specific format failures, all matching ErrFormat.
var (
	ErrInvalidMagic       = fmt.Errorf("%w: bad magic bytes", ErrFormat)
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrFormat)
	ErrTruncated          = fmt.Errorf("%w: truncated data", ErrFormat)
)
