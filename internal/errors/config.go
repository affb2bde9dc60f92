package errors

import "errors"

// ConfigError represents a fatal configuration problem detected at startup.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Key + ": " + e.Reason
}

// NewConfigError creates a ConfigError for the given configuration key.
func NewConfigError(key, reason string) *ConfigError {
	return &ConfigError{Key: key, Reason: reason}
}

// IsConfigError reports whether err is a ConfigError (even when wrapped).
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
