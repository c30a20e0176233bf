package crew

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	logical := []string{"run", "otterfall", "game_builder", "--input", "hi", JSONFlag}

	tests := []struct {
		name     string
		opts     Options
		wantPath string
		wantArgs []string
	}{
		{
			name:     "defaults to wrapped uv",
			opts:     Options{},
			wantPath: "uv",
			wantArgs: append([]string{"run", "crew-agents"}, logical...),
		},
		{
			name:     "wrapped with custom launcher path",
			opts:     Options{Strategy: StrategyWrapped, Executable: "/opt/bin/uv", WorkerBinary: "my-worker"},
			wantPath: "/opt/bin/uv",
			wantArgs: append([]string{"run", "my-worker"}, logical...),
		},
		{
			name:     "direct uses worker binary",
			opts:     Options{Strategy: StrategyDirect},
			wantPath: "crew-agents",
			wantArgs: logical,
		},
		{
			name:     "direct with explicit executable",
			opts:     Options{Strategy: StrategyDirect, Executable: "/usr/local/bin/crew-agents"},
			wantPath: "/usr/local/bin/crew-agents",
			wantArgs: logical,
		},
		{
			name:     "module inferred from python",
			opts:     Options{Executable: "/usr/bin/python3.12"},
			wantPath: "/usr/bin/python3.12",
			wantArgs: append([]string{"-m", "crew_agents"}, logical...),
		},
		{
			name:     "module default interpreter",
			opts:     Options{Strategy: StrategyModule},
			wantPath: "python3",
			wantArgs: append([]string{"-m", "crew_agents"}, logical...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Build(tt.opts, logical)
			assert.Equal(t, tt.wantPath, cmd.Path)
			assert.Equal(t, tt.wantArgs, cmd.Args)
		})
	}
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	logical := []string{"list"}
	cmd := Build(Options{Strategy: StrategyDirect}, logical)
	cmd.Args[0] = "changed"
	assert.Equal(t, "list", logical[0])
}

func TestBuild_Deterministic(t *testing.T) {
	opts := Options{Executable: "uv"}
	args := RunArgs("p", "c", "x")
	assert.Equal(t, Build(opts, args), Build(opts, args))
}

func TestLogicalArgs(t *testing.T) {
	run := RunArgs("pkg", "crew", "do the thing")
	assert.Equal(t, []string{"run", "pkg", "crew", "--input", "do the thing", "--json"}, run)
	assert.NotContains(t, ListArgs(), JSONFlag)
	assert.NotContains(t, InfoArgs("pkg", "crew"), JSONFlag)
	assert.Equal(t, []string{"info", "pkg", "crew"}, InfoArgs("pkg", "crew"))
}

func TestInferStrategy(t *testing.T) {
	tests := map[string]Strategy{
		"":                       StrategyWrapped,
		"uv":                     StrategyWrapped,
		"/home/me/.local/bin/uv": StrategyWrapped,
		"python":                 StrategyModule,
		"python3":                StrategyModule,
		"/usr/bin/python3.11":    StrategyModule,
		"crew-agents":            StrategyDirect,
		"/opt/uvicorn":           StrategyDirect,
		"pythonista":             StrategyDirect,
	}
	for exe, want := range tests {
		assert.Equal(t, want, InferStrategy(exe), "executable %q", exe)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown strategy", Options{Strategy: "docker"}},
		{"negative timeout", Options{DefaultTimeout: -time.Second}},
		{"binary with spaces", Options{WorkerBinary: "crew agents"}},
		{"bad module", Options{WorkerModule: "crew-agents"}},
		{"bad env key", Options{Env: map[string]string{"A=B": "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, err := New(tt.opts)
			require.Error(t, err)
			assert.Nil(t, tool)
			cat, ok := CategoryOf(err)
			require.True(t, ok)
			assert.Equal(t, CategoryConfig, cat)
		})
	}
}

func TestNew_NegativeTimeoutMessage(t *testing.T) {
	_, err := New(Options{DefaultTimeout: -time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
	assert.Contains(t, err.Error(), "zero selects the 5m0s default")
}

func TestNew_ResolvesDefaults(t *testing.T) {
	tool, err := New(Options{})
	require.NoError(t, err)
	opts := tool.Options()
	assert.Equal(t, StrategyWrapped, opts.Strategy)
	assert.Equal(t, DefaultLauncher, opts.Executable)
	assert.Equal(t, DefaultTimeout, opts.DefaultTimeout)
}

func TestNew_CopiesEnv(t *testing.T) {
	env := map[string]string{"A": "1"}
	tool, err := New(Options{Env: env})
	require.NoError(t, err)
	env["A"] = "2"
	assert.Equal(t, "1", tool.Options().Env["A"])
}
