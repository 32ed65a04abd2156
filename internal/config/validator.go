package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/taskflow/internal/report"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateEngine(&cfg.Engine)
	v.validateEvents(&cfg.Events)
	v.validateServer(&cfg.Server)
	v.validateDefinitions(&cfg.Definitions)
	v.validateReport(&cfg.Report)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateEngine(cfg *EngineConfig) {
	switch cfg.Mode {
	case ModeSequential:
	case ModeConcurrent:
		if cfg.MaxWorkers < 2 {
			v.addError("engine.max_workers", cfg.MaxWorkers, "must be at least 2 in concurrent mode")
		}
	default:
		v.addError("engine.mode", cfg.Mode, "must be one of: sequential, concurrent")
	}

	if cfg.MaxWorkers < 1 {
		v.addError("engine.max_workers", cfg.MaxWorkers, "must be positive")
	}

	if cfg.TaskTimeout != "" {
		d, err := time.ParseDuration(cfg.TaskTimeout)
		if err != nil {
			v.addError("engine.task_timeout", cfg.TaskTimeout, "invalid duration format")
		} else if d < 0 {
			v.addError("engine.task_timeout", cfg.TaskTimeout, "must be non-negative")
		}
	}
}

func (v *Validator) validateEvents(cfg *EventsConfig) {
	if cfg.BufferSize <= 0 {
		v.addError("events.buffer_size", cfg.BufferSize, "must be positive")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("server.port", cfg.Port, "must be between 1 and 65535")
	}
	if cfg.RunHistory <= 0 {
		v.addError("server.run_history", cfg.RunHistory, "must be positive")
	}
}

func (v *Validator) validateDefinitions(cfg *DefinitionsConfig) {
	if cfg.Path == "" {
		v.addError("definitions.path", cfg.Path, "path required")
	}
}

func (v *Validator) validateReport(cfg *ReportConfig) {
	if _, err := report.ParseFormat(cfg.Format); err != nil {
		v.addError("report.format", cfg.Format, "must be one of: text, json, yaml")
	}
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}
