package config

import (
	"time"

	"github.com/mattjoyce/crewtool/internal/crew"
)

// Config represents the complete crewtool configuration.
type Config struct {
	Service     ServiceConfig                `yaml:"service"`
	Worker      WorkerConfig                 `yaml:"worker"`
	Credentials map[string]map[string]string `yaml:"credentials,omitempty"`
	API         APIConfig                    `yaml:"api"`
	History     HistoryConfig                `yaml:"history"`

	// SourcePath is the file the config was loaded from; empty for defaults.
	SourcePath string `yaml:"-"`
}

// ServiceConfig defines logging settings.
type ServiceConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// WorkerConfig describes how the crew worker is launched.
type WorkerConfig struct {
	Strategy       string            `yaml:"strategy"`
	Executable     string            `yaml:"executable"`
	Binary         string            `yaml:"binary"`
	Module         string            `yaml:"module"`
	Dir            string            `yaml:"dir"`
	DefaultTimeout time.Duration     `yaml:"default_timeout"`
	IsolateEnv     bool              `yaml:"isolate_env"`
	Env            map[string]string `yaml:"env,omitempty"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Listen        string `yaml:"listen"`
	Token         string `yaml:"token"`
	MaxConcurrent int    `yaml:"max_concurrent"`
	// MaxTimeout caps the per-request timeout_ms accepted by the API.
	MaxTimeout time.Duration `yaml:"max_timeout"`
	// CORSOrigins enables CORS for browser clients; empty disables it.
	CORSOrigins []string `yaml:"cors_origins"`
}

// HistoryConfig defines the invocation journal.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
		Worker: WorkerConfig{
			Binary:         crew.DefaultWorkerBinary,
			Module:         crew.DefaultWorkerModule,
			DefaultTimeout: crew.DefaultTimeout,
		},
		API: APIConfig{
			Listen:        "127.0.0.1:8088",
			MaxConcurrent: 4,
			MaxTimeout:    time.Hour,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    "./data/history.db",
		},
	}
}

// WorkerOptions converts the worker block into crew.Options. An empty
// strategy is left for crew.New to infer from the executable.
func (c *Config) WorkerOptions() crew.Options {
	env := make(map[string]string, len(c.Worker.Env))
	for k, v := range c.Worker.Env {
		env[k] = v
	}
	return crew.Options{
		Strategy:       crew.Strategy(c.Worker.Strategy),
		Executable:     c.Worker.Executable,
		WorkerBinary:   c.Worker.Binary,
		WorkerModule:   c.Worker.Module,
		Dir:            c.Worker.Dir,
		DefaultTimeout: c.Worker.DefaultTimeout,
		Env:            env,
		IsolateEnv:     c.Worker.IsolateEnv,
	}
}
