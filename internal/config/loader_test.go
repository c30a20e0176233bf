package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattjoyce/crewtool/internal/crew"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crewtool.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
		checkFn func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty file uses defaults",
			yaml: "",
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Service.LogLevel != "info" || cfg.Service.LogFormat != "json" {
					t.Errorf("service defaults not applied: %+v", cfg.Service)
				}
				if cfg.Worker.Strategy != string(crew.StrategyWrapped) {
					t.Errorf("strategy = %q, want wrapped", cfg.Worker.Strategy)
				}
				if cfg.Worker.DefaultTimeout != crew.DefaultTimeout {
					t.Errorf("default_timeout = %v", cfg.Worker.DefaultTimeout)
				}
				if cfg.API.MaxConcurrent != 4 {
					t.Errorf("max_concurrent = %d", cfg.API.MaxConcurrent)
				}
				if cfg.History.Enabled {
					t.Error("history should be disabled by default")
				}
			},
		},
		{
			name: "full worker block",
			yaml: `
service:
  log_level: DEBUG
  log_format: text
worker:
  strategy: direct
  executable: /usr/local/bin/crew-agents
  default_timeout: 90s
  isolate_env: true
  env:
    MODEL: gpt-4o
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Service.LogLevel != "debug" {
					t.Errorf("log_level not lowercased: %q", cfg.Service.LogLevel)
				}
				if cfg.Worker.DefaultTimeout != 90*time.Second {
					t.Errorf("default_timeout = %v", cfg.Worker.DefaultTimeout)
				}
				if cfg.Worker.Dir != "" {
					t.Errorf("direct strategy should not auto-detect dir, got %q", cfg.Worker.Dir)
				}
				opts := cfg.WorkerOptions()
				if opts.Strategy != crew.StrategyDirect || !opts.IsolateEnv || opts.Env["MODEL"] != "gpt-4o" {
					t.Errorf("WorkerOptions() = %+v", opts)
				}
			},
		},
		{
			name: "strategy inferred from python executable",
			yaml: `
worker:
  executable: python3
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Worker.Strategy != string(crew.StrategyModule) {
					t.Errorf("strategy = %q, want module", cfg.Worker.Strategy)
				}
			},
		},
		{
			name: "env var interpolation",
			yaml: `
worker:
  env:
    OPENAI_API_KEY: ${CREWTOOL_TEST_KEY}
api:
  token: ${CREWTOOL_TEST_TOKEN}
`,
			env: map[string]string{"CREWTOOL_TEST_KEY": "sk-test", "CREWTOOL_TEST_TOKEN": "secret"},
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Worker.Env["OPENAI_API_KEY"] != "sk-test" {
					t.Errorf("worker env not interpolated: %v", cfg.Worker.Env)
				}
				if cfg.API.Token != "secret" {
					t.Errorf("api.token not interpolated: %q", cfg.API.Token)
				}
			},
		},
		{
			name: "api block",
			yaml: `
api:
  listen: 0.0.0.0:9000
  max_concurrent: 2
  cors_origins: ["http://localhost:5173"]
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.API.Listen != "0.0.0.0:9000" || cfg.API.MaxConcurrent != 2 {
					t.Errorf("api = %+v", cfg.API)
				}
				if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "http://localhost:5173" {
					t.Errorf("cors_origins = %v", cfg.API.CORSOrigins)
				}
				if cfg.API.MaxTimeout != time.Hour {
					t.Errorf("max_timeout = %v, want 1h default", cfg.API.MaxTimeout)
				}
			},
		},
		{
			name: "zero timeout selects default",
			yaml: "worker:\n  default_timeout: 0s\napi:\n  max_timeout: 10m\n",
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Worker.DefaultTimeout != crew.DefaultTimeout {
					t.Errorf("default_timeout = %v, want %v", cfg.Worker.DefaultTimeout, crew.DefaultTimeout)
				}
				if cfg.API.MaxTimeout != 10*time.Minute {
					t.Errorf("max_timeout = %v", cfg.API.MaxTimeout)
				}
			},
		},
		{
			name:    "negative max timeout",
			yaml:    "api:\n  max_timeout: -1s\n",
			wantErr: "api.max_timeout",
		},
		{
			name: "relative paths resolve against config dir",
			yaml: `
worker:
  dir: ./python
history:
  enabled: true
  path: data/history.db
`,
			checkFn: func(t *testing.T, cfg *Config) {
				base := filepath.Dir(cfg.SourcePath)
				if cfg.Worker.Dir != filepath.Join(base, "python") {
					t.Errorf("worker.dir = %q", cfg.Worker.Dir)
				}
				if cfg.History.Path != filepath.Join(base, "data", "history.db") {
					t.Errorf("history.path = %q", cfg.History.Path)
				}
			},
		},
		{
			name:    "unset worker env var",
			yaml:    "worker:\n  env:\n    KEY: ${CREWTOOL_TEST_UNSET_VAR}\n",
			wantErr: "${CREWTOOL_TEST_UNSET_VAR} is not set",
		},
		{
			name:    "unset api token var",
			yaml:    "api:\n  token: ${CREWTOOL_TEST_UNSET_VAR}\n",
			wantErr: "api.token",
		},
		{
			name:    "unknown strategy",
			yaml:    "worker:\n  strategy: docker\n",
			wantErr: "worker.strategy",
		},
		{
			name:    "bad log level",
			yaml:    "service:\n  log_level: verbose\n",
			wantErr: "service.log_level",
		},
		{
			name:    "negative timeout",
			yaml:    "worker:\n  default_timeout: -1s\n",
			wantErr: "default_timeout must not be negative",
		},
		{
			name:    "bad listen address",
			yaml:    "api:\n  listen: localhost\n",
			wantErr: "api.listen",
		},
		{
			name:    "bad credentials package",
			yaml:    "credentials:\n  \"bad pkg\":\n    TOKEN: x\n",
			wantErr: "credentials",
		},
		{
			name:    "malformed yaml",
			yaml:    "worker: [",
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(writeConfig(t, tt.yaml))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error %q does not contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if tt.checkFn != nil {
				tt.checkFn(t, cfg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDiscover(t *testing.T) {
	t.Run("env var wins", func(t *testing.T) {
		path := writeConfig(t, "")
		t.Setenv("CREWTOOL_CONFIG", path)
		got, err := Discover()
		if err != nil {
			t.Fatal(err)
		}
		if got != path {
			t.Errorf("Discover() = %q, want %q", got, path)
		}
	})

	t.Run("env var pointing nowhere", func(t *testing.T) {
		t.Setenv("CREWTOOL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
		if _, err := Discover(); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Setenv("CREWTOOL_CONFIG", "")
		t.Setenv("HOME", t.TempDir())
		t.Chdir(t.TempDir())
		got, err := Discover()
		if err != nil {
			t.Fatal(err)
		}
		if got != "" {
			t.Errorf("Discover() = %q, want empty", got)
		}
	})

	t.Run("user config dir", func(t *testing.T) {
		home := t.TempDir()
		path := filepath.Join(home, ".config", "crewtool", "config.yaml")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("CREWTOOL_CONFIG", "")
		t.Setenv("HOME", home)
		t.Chdir(t.TempDir())
		got, err := Discover()
		if err != nil {
			t.Fatal(err)
		}
		if got != path {
			t.Errorf("Discover() = %q, want %q", got, path)
		}
	})
}

func TestLoadOrDefault_NoConfig(t *testing.T) {
	t.Setenv("CREWTOOL_CONFIG", "")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SourcePath != "" {
		t.Errorf("SourcePath = %q, want empty", cfg.SourcePath)
	}
	if cfg.Worker.Strategy != string(crew.StrategyWrapped) {
		t.Errorf("strategy = %q", cfg.Worker.Strategy)
	}
}

func TestDetectWorkerDir(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := detectWorkerDirFrom(nested); got != filepath.Join(nested, "python") {
		t.Errorf("fallback = %q", got)
	}

	project := filepath.Join(root, "python")
	if err := os.MkdirAll(project, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, "pyproject.toml"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := detectWorkerDirFrom(nested); got != project {
		t.Errorf("detectWorkerDirFrom(%q) = %q, want %q", nested, got, project)
	}
}

func TestCredentials(t *testing.T) {
	cfg := &Config{Credentials: map[string]map[string]string{
		"acme":   {"GITHUB_TOKEN": "ghp-acme"},
		"broken": {"GITHUB_TOKEN": "${CREWTOOL_TEST_UNSET_VAR}"},
	}}
	store := cfg.CredentialStore()

	env, err := store.Env(context.Background(), crew.Request{Package: "acme"})
	if err != nil {
		t.Fatal(err)
	}
	if env["GITHUB_TOKEN"] != "ghp-acme" {
		t.Errorf("acme env = %v", env)
	}

	env, err = store.Env(context.Background(), crew.Request{Package: "other"})
	if err != nil || env != nil {
		t.Errorf("unknown package: env=%v err=%v", env, err)
	}

	if _, err := store.Env(context.Background(), crew.Request{Package: "broken"}); err == nil {
		t.Error("expected error for unresolved placeholder")
	}

	if got := strings.Join(store.Packages(), ","); got != "acme,broken" {
		t.Errorf("Packages() = %q", got)
	}

	cfg.Credentials["acme"]["GITHUB_TOKEN"] = "mutated"
	env, _ = store.Env(context.Background(), crew.Request{Package: "acme"})
	if env["GITHUB_TOKEN"] != "ghp-acme" {
		t.Error("store must not alias the config map")
	}
}
