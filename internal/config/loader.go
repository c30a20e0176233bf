package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/crewtool/internal/crew"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", absPath, err)
	}
	cfg.SourcePath = absPath

	if cfg.Worker.Dir != "" && !filepath.IsAbs(cfg.Worker.Dir) {
		cfg.Worker.Dir = filepath.Join(filepath.Dir(absPath), cfg.Worker.Dir)
	}
	if cfg.History.Path != "" && !filepath.IsAbs(cfg.History.Path) {
		cfg.History.Path = filepath.Join(filepath.Dir(absPath), cfg.History.Path)
	}

	cfg = applyConfigDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	// Interpolate before decoding so ${VAR} works inside any scalar.
	expanded := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Discover finds the config file by checking standard locations.
// Priority order: $CREWTOOL_CONFIG, ~/.config/crewtool/config.yaml, ./crewtool.yaml.
// Returns "" with no error when nothing is found; callers fall back to defaults.
func Discover() (string, error) {
	if path := os.Getenv("CREWTOOL_CONFIG"); path != "" {
		if !fileExists(path) {
			return "", fmt.Errorf("$CREWTOOL_CONFIG points to %s, which does not exist", path)
		}
		return path, nil
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfig := filepath.Join(homeDir, ".config", "crewtool", "config.yaml")
		if fileExists(userConfig) {
			return userConfig, nil
		}
	}

	if fileExists("crewtool.yaml") {
		return "crewtool.yaml", nil
	}
	return "", nil
}

// LoadOrDefault loads path, or the discovered config when path is empty.
// With no config anywhere it returns defaults with an auto-detected worker dir.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		discovered, err := Discover()
		if err != nil {
			return nil, err
		}
		path = discovered
	}
	if path != "" {
		return Load(path)
	}

	cfg := applyConfigDefaults(Defaults())
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyConfigDefaults fills zero-valued fields from Defaults().
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	cfg.Service.LogLevel = strings.ToLower(cfg.Service.LogLevel)
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}

	if cfg.Worker.Binary == "" {
		cfg.Worker.Binary = defaults.Worker.Binary
	}
	if cfg.Worker.Module == "" {
		cfg.Worker.Module = defaults.Worker.Module
	}
	if cfg.Worker.DefaultTimeout == 0 {
		cfg.Worker.DefaultTimeout = defaults.Worker.DefaultTimeout
	}
	if cfg.Worker.Strategy == "" {
		cfg.Worker.Strategy = string(crew.InferStrategy(cfg.Worker.Executable))
	}
	if cfg.Worker.Dir == "" && cfg.Worker.Strategy != string(crew.StrategyDirect) {
		cfg.Worker.Dir = DetectWorkerDir()
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}
	if cfg.API.MaxConcurrent == 0 {
		cfg.API.MaxConcurrent = defaults.API.MaxConcurrent
	}
	if cfg.API.MaxTimeout == 0 {
		cfg.API.MaxTimeout = defaults.API.MaxTimeout
	}

	if cfg.History.Path == "" {
		cfg.History.Path = defaults.History.Path
	}
	return cfg
}

// interpolateEnv replaces ${VAR} with the environment value. Unknown
// variables are left in place so validation can name them.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if cfg.Service.LogFormat != "json" && cfg.Service.LogFormat != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	switch crew.Strategy(cfg.Worker.Strategy) {
	case crew.StrategyDirect, crew.StrategyWrapped, crew.StrategyModule:
	default:
		return fmt.Errorf("worker.strategy must be one of: direct, wrapped, module (got %q)", cfg.Worker.Strategy)
	}
	if cfg.Worker.DefaultTimeout < 0 {
		return fmt.Errorf("worker.default_timeout must not be negative (omit it or use 0 for the default)")
	}
	for k, v := range cfg.Worker.Env {
		if k == "" || strings.ContainsAny(k, "=\x00") {
			return fmt.Errorf("worker.env: invalid variable name %q", k)
		}
		if m := envVarPattern.FindStringSubmatch(v); m != nil {
			return fmt.Errorf("worker.env.%s: environment variable ${%s} is not set", k, m[1])
		}
	}

	for pkg, env := range cfg.Credentials {
		if err := crew.ValidateName("package", pkg); err != nil {
			return fmt.Errorf("credentials: %w", err)
		}
		for k := range env {
			if k == "" || strings.ContainsAny(k, "=\x00") {
				return fmt.Errorf("credentials.%s: invalid variable name %q", pkg, k)
			}
		}
	}

	if _, _, err := net.SplitHostPort(cfg.API.Listen); err != nil {
		return fmt.Errorf("api.listen %q: %w", cfg.API.Listen, err)
	}
	if cfg.API.MaxConcurrent < 0 {
		return fmt.Errorf("api.max_concurrent must not be negative")
	}
	if cfg.API.MaxTimeout < 0 {
		return fmt.Errorf("api.max_timeout must not be negative")
	}
	if m := envVarPattern.FindStringSubmatch(cfg.API.Token); m != nil {
		return fmt.Errorf("api.token: environment variable ${%s} is not set", m[1])
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	return nil
}
