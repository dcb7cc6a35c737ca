package config

import "fmt"

// ConfigurationError pins a load or resolution failure to the instrument
// (or class) and field that caused it.
type ConfigurationError struct {
	Instrument string
	Field      string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s: %s: %s", e.Instrument, e.Field, e.Reason)
}
