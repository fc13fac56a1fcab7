package generate

import "fmt"

// ConfigError reports an invalid decoding or runtime configuration value.
// It is raised at construction time and never recovered from.
type ConfigError struct {
	Field  string
	Reason string
}

func (e ConfigError) Error() string { return "invalid " + e.Field + ": " + e.Reason }

func configErrorf(field, format string, args ...any) error {
	return ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is a configuration validation failure
// (map to 400 at the HTTP layer).
func IsConfigError(err error) bool {
	_, ok := err.(ConfigError)
	return ok
}

// ReshapeError reports a mismatch between the flat output count returned by
// the backend and the batch structure expected from it. It carries the
// observed and expected values so callers can see exactly what diverged.
type ReshapeError struct {
	What string // which quantity mismatched: "outputs", "groups", "group size"
	Got  int
	Want int
}

func (e ReshapeError) Error() string {
	return fmt.Sprintf("reshape: got %d %s, want %d", e.Got, e.What, e.Want)
}

// IsReshapeError reports whether err indicates a backend output-shape
// contract violation.
func IsReshapeError(err error) bool {
	_, ok := err.(ReshapeError)
	return ok
}

// BackendError wraps a failure surfaced by the model backend (load failure,
// resource exhaustion, transport error). It is fatal for the current batch;
// the orchestrator never retries or downgrades the batch size.
type BackendError struct {
	Op  string // "tokenize", "generate", "decode", "load"
	Err error
}

func (e BackendError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e BackendError) Unwrap() error { return e.Err }

// IsBackendError reports whether err originated in the model backend.
func IsBackendError(err error) bool {
	_, ok := err.(BackendError)
	return ok
}
