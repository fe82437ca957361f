package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch means a file name matched no registered domain. It is
	// informational: unrelated files may share the input directory.
	ErrNoMatch = errors.New("no matching domain")

	// ErrStorageUnavailable means the destination store is unreachable.
	// Fatal for the run; unprocessed files stay in input for the next one.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ConfigurationError reports an invalid domain registration. Always fatal
// at startup, never a per-file condition.
type ConfigurationError struct {
	Domain string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("domain %q: %s", e.Domain, e.Reason)
}
