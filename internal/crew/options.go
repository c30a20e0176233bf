package crew

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Strategy selects how the worker program is launched.
type Strategy string

const (
	// StrategyDirect runs the worker binary itself.
	StrategyDirect Strategy = "direct"
	// StrategyWrapped runs the worker through a package runner: `uv run <binary> ...`.
	StrategyWrapped Strategy = "wrapped"
	// StrategyModule runs the worker as an interpreter module: `python3 -m <module> ...`.
	StrategyModule Strategy = "module"
)

const (
	DefaultWorkerBinary = "crew-agents"
	DefaultWorkerModule = "crew_agents"
	DefaultLauncher     = "uv"
	DefaultInterpreter  = "python3"
	DefaultTimeout      = 5 * time.Minute
)

var (
	pythonExecutable = regexp.MustCompile(`^python(\d+(\.\d+)?)?(\.exe)?$`)
	modulePath       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// Options configure a Tool. They are resolved and validated once by New and
// never change afterwards.
type Options struct {
	// Strategy is inferred from Executable when empty.
	Strategy Strategy
	// Executable is the launcher (wrapped), interpreter (module) or worker
	// binary (direct). Defaults depend on Strategy.
	Executable   string
	WorkerBinary string
	WorkerModule string
	// Dir is the working directory of the worker process.
	Dir            string
	DefaultTimeout time.Duration
	// Env is layered over the parent environment.
	Env map[string]string
	// IsolateEnv drops the parent environment entirely.
	IsolateEnv bool
}

// InferStrategy guesses the strategy from an executable path: uv is a
// package runner, python interpreters load a module, anything else is run
// directly. An empty executable means the default launcher.
func InferStrategy(executable string) Strategy {
	if executable == "" {
		return StrategyWrapped
	}
	base := strings.ToLower(filepath.Base(executable))
	switch {
	case base == "uv" || base == "uv.exe":
		return StrategyWrapped
	case pythonExecutable.MatchString(base):
		return StrategyModule
	default:
		return StrategyDirect
	}
}

// withDefaults fills every unset field. It is idempotent.
func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = InferStrategy(o.Executable)
	}
	if o.WorkerBinary == "" {
		o.WorkerBinary = DefaultWorkerBinary
	}
	if o.WorkerModule == "" {
		o.WorkerModule = DefaultWorkerModule
	}
	if o.Executable == "" {
		switch o.Strategy {
		case StrategyWrapped:
			o.Executable = DefaultLauncher
		case StrategyModule:
			o.Executable = DefaultInterpreter
		case StrategyDirect:
			o.Executable = o.WorkerBinary
		}
	}
	if o.DefaultTimeout == 0 {
		o.DefaultTimeout = DefaultTimeout
	}
	return o
}

// validate checks resolved options. Failures are config errors.
func (o Options) validate() error {
	switch o.Strategy {
	case StrategyDirect, StrategyWrapped, StrategyModule:
	default:
		return newError(CategoryConfig, nil, "invalid worker strategy %q (must be one of: direct, wrapped, module)", o.Strategy)
	}
	if o.DefaultTimeout < 0 {
		return newError(CategoryConfig, nil, "default timeout must not be negative (got %v); zero selects the %v default", o.DefaultTimeout, DefaultTimeout)
	}
	if strings.ContainsAny(o.WorkerBinary, " \t\n") {
		return newError(CategoryConfig, nil, "invalid worker binary %q: must not contain whitespace", o.WorkerBinary)
	}
	if !modulePath.MatchString(o.WorkerModule) {
		return newError(CategoryConfig, nil, "invalid worker module %q", o.WorkerModule)
	}
	for k := range o.Env {
		if k == "" || strings.ContainsAny(k, "=\x00") {
			return newError(CategoryConfig, nil, "invalid environment variable name %q", k)
		}
	}
	return nil
}
