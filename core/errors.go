package core

import "fmt"

// TransportError reports a failed fetch or send against the bot API.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ClassificationError reports a classifier failure for a single update.
type ClassificationError struct {
	UpdateID int64
	Err      error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify update %d: %v", e.UpdateID, e.Err)
}
func (e *ClassificationError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing or invalid startup dependency.
// It is the only error class allowed to stop the process.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Field, e.Err)
}
func (e *ConfigurationError) Unwrap() error { return e.Err }
