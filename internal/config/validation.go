// Package config handles configuration loading, validation, and management for kbstate.
package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateDriver(&c.Driver)...)
	errs = append(errs, validateSession(&c.Session)...)
	errs = append(errs, validatePoll(&c.Poll)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateDriver(d *DriverConfig) ValidationErrors {
	var errs ValidationErrors

	switch d.Type {
	case "", "evdev", "hidraw", "memory":
	default:
		errs = append(errs, ValidationError{
			Field:   "driver.type",
			Message: fmt.Sprintf("unknown driver type %q (expected evdev, hidraw, or memory)", d.Type),
		})
	}

	if d.DevicePath != "" && !strings.HasPrefix(d.DevicePath, "/") {
		errs = append(errs, ValidationError{
			Field:   "driver.device_path",
			Message: "device path must be absolute",
		})
	}

	return errs
}

func validateSession(s *SessionConfig) ValidationErrors {
	var errs ValidationErrors

	if s.QueueDepth < 1 {
		errs = append(errs, ValidationError{
			Field:   "session.queue_depth",
			Message: "queue depth must be at least 1",
		})
	}
	if s.QueueDepth > 65536 {
		errs = append(errs, ValidationError{
			Field:   "session.queue_depth",
			Message: "queue depth must not exceed 65536",
		})
	}
	if s.ResolveThreshold < 0 {
		errs = append(errs, ValidationError{
			Field:   "session.resolve_threshold",
			Message: "resolve threshold cannot be negative",
		})
	}

	return errs
}

func validatePoll(p *PollConfig) ValidationErrors {
	var errs ValidationErrors

	if p.IntervalMs < 10 {
		errs = append(errs, ValidationError{
			Field:   "poll.interval_ms",
			Message: "poll interval must be at least 10ms",
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown log level %q", l.Level),
		})
	}

	switch l.Format {
	case "", "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown log format %q", l.Format),
		})
	}

	switch l.Output {
	case "", "stdout", "stderr", "file":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("unknown log output %q", l.Output),
		})
	}

	if l.Output == "file" && l.FilePath == "" {
		errs = append(errs, ValidationError{
			Field:   "logging.file_path",
			Message: "file output requires a file path",
		})
	}

	return errs
}
