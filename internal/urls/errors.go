package urls

import (
	"errors"
	"fmt"
)

// ErrNoReverseMatch is returned when a route name cannot be turned back into a path.
var ErrNoReverseMatch = errors.New("no reverse match")

// NoMatchError is returned by Resolve when no route matches a path.
type NoMatchError struct {
	Path  string
	Tried []string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no route matches path %q (tried %d patterns)", e.Path, len(e.Tried))
}

// ConfigError describes an invalid route entry found while building a table.
type ConfigError struct {
	Pattern string
	Name    string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("route %q (%s): %s", e.Pattern, e.Name, e.Reason)
	}
	return fmt.Sprintf("route %q: %s", e.Pattern, e.Reason)
}
