package config

import (
	"time"

	"github.com/hugo-lorenzo-mato/taskflow/internal/engine"
	"github.com/hugo-lorenzo-mato/taskflow/internal/events"
	"github.com/hugo-lorenzo-mato/taskflow/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Events      EventsConfig      `mapstructure:"events"`
	Server      ServerConfig      `mapstructure:"server"`
	Definitions DefinitionsConfig `mapstructure:"definitions"`
	Report      ReportConfig      `mapstructure:"report"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig configures workflow execution.
type EngineConfig struct {
	Mode                   string `mapstructure:"mode"`
	MaxWorkers             int    `mapstructure:"max_workers"`
	TaskTimeout            string `mapstructure:"task_timeout"`
	SkipOnFailedDependency bool   `mapstructure:"skip_on_failed_dependency"`
	ResetBeforeRun         bool   `mapstructure:"reset_before_run"`
}

// EventsConfig configures the event bus.
type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	CORS       bool   `mapstructure:"cors"`
	RunHistory int    `mapstructure:"run_history"`
}

// DefinitionsConfig locates workflow definitions.
type DefinitionsConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// Execution modes.
const (
	ModeSequential = "sequential"
	ModeConcurrent = "concurrent"
)

// TaskTimeoutDuration parses engine.task_timeout. Empty means no timeout.
func (c EngineConfig) TaskTimeoutDuration() time.Duration {
	if c.TaskTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.TaskTimeout)
	if err != nil {
		return 0
	}
	return d
}

// LoggingConfig converts the log section for logging.New.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = c.Log.Format
	return cfg
}

// EngineOptions maps the engine section to engine options.
func (c *Config) EngineOptions(logger *logging.Logger, bus *events.EventBus) []engine.Option {
	opts := []engine.Option{engine.WithLogger(logger)}
	if bus != nil {
		opts = append(opts, engine.WithEventBus(bus))
	}
	if c.Engine.Mode == ModeConcurrent {
		opts = append(opts, engine.WithConcurrency(c.Engine.MaxWorkers))
	}
	if d := c.Engine.TaskTimeoutDuration(); d > 0 {
		opts = append(opts, engine.WithTaskTimeout(d))
	}
	if c.Engine.SkipOnFailedDependency {
		opts = append(opts, engine.WithSkipOnFailedDependency())
	}
	if c.Engine.ResetBeforeRun {
		opts = append(opts, engine.WithResetBeforeRun())
	}
	return opts
}
