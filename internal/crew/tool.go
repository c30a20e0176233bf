package crew

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/crewtool/internal/supervise"
)

// EnvProvider contributes environment variables for a request, e.g.
// per-organization tokens. Values are treated as opaque.
type EnvProvider interface {
	Env(ctx context.Context, req Request) (map[string]string, error)
}

// EnvProviderFunc adapts a function to EnvProvider.
type EnvProviderFunc func(ctx context.Context, req Request) (map[string]string, error)

func (f EnvProviderFunc) Env(ctx context.Context, req Request) (map[string]string, error) {
	return f(ctx, req)
}

// Info describes one crew.
type Info struct {
	Package     string `json:"package"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Option customises a Tool.
type Option func(*Tool)

// WithLogger sets the logger used for invocations.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tool) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithEnvProvider adds a provider layered between the configured base
// environment and the per-request environment.
func WithEnvProvider(p EnvProvider) Option {
	return func(t *Tool) {
		t.provider = p
	}
}

// Tool invokes crews through one-shot worker processes. Its options are read
// only, so one Tool may serve concurrent invocations.
type Tool struct {
	opts       Options
	logger     *slog.Logger
	provider   EnvProvider
	supervisor *supervise.Supervisor
	environ    func() []string
}

// New validates opts and returns a Tool. Invalid options are config errors.
func New(opts Options, options ...Option) (*Tool, error) {
	resolved := opts.withDefaults()
	if err := resolved.validate(); err != nil {
		return nil, err
	}
	env := make(map[string]string, len(resolved.Env))
	for k, v := range resolved.Env {
		env[k] = v
	}
	resolved.Env = env

	t := &Tool{
		opts:    resolved,
		logger:  slog.New(slog.DiscardHandler),
		environ: os.Environ,
	}
	for _, o := range options {
		o(t)
	}
	t.supervisor = supervise.New(t.logger.With("component", "supervise"))
	return t, nil
}

// Options returns the resolved options.
func (t *Tool) Options() Options {
	return t.opts
}

// Invoke runs one crew and returns its Result. It never returns a Go error;
// every failure mode is reported through Result.Category.
func (t *Tool) Invoke(ctx context.Context, req Request) Result {
	start := time.Now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	logger := t.logger.With("invocation_id", req.ID, "package", req.Package, "crew", req.Crew)

	if err := Validate(req.Package, req.Crew); err != nil {
		logger.Warn("rejected crew request", "error", err)
		return failure(err, time.Since(start))
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = t.opts.DefaultTimeout
	}

	res := t.run(ctx, req, RunArgs(req.Package, req.Crew, req.Input), timeout, start)
	if res.Success {
		logger.Info("crew invocation succeeded", "duration_ms", res.DurationMs)
	} else {
		logger.Warn("crew invocation failed",
			"error_category", res.Category,
			"error", res.Error,
			"duration_ms", res.DurationMs,
		)
	}
	return res
}

// ListCrews asks the worker for every available crew.
// Expected output lines: "package.crew - description".
func (t *Tool) ListCrews(ctx context.Context) ([]Info, error) {
	res := t.run(ctx, Request{}, ListArgs(), t.opts.DefaultTimeout, time.Now())
	if !res.Success {
		return nil, newError(res.Category, res.Err(), "failed to list crews: %s", res.Error)
	}
	return parseCrewList(res.Output), nil
}

// CrewInfo describes a single crew.
func (t *Tool) CrewInfo(ctx context.Context, packageName, crewName string) (Info, error) {
	if err := Validate(packageName, crewName); err != nil {
		return Info{}, err
	}
	req := Request{Package: packageName, Crew: crewName}
	res := t.run(ctx, req, InfoArgs(packageName, crewName), t.opts.DefaultTimeout, time.Now())
	if !res.Success {
		return Info{}, newError(res.Category, res.Err(), "failed to get crew info: %s", res.Error)
	}
	return parseCrewInfo(packageName, crewName, res.Output), nil
}

func (t *Tool) run(ctx context.Context, req Request, logicalArgs []string, timeout time.Duration, start time.Time) Result {
	env, err := t.environment(ctx, req)
	if err != nil {
		return failure(err, time.Since(start))
	}

	cmd := Build(t.opts, logicalArgs)
	out := t.supervisor.Run(ctx, supervise.Spec{
		Path:    cmd.Path,
		Args:    cmd.Args,
		Dir:     t.opts.Dir,
		Env:     env,
		Timeout: timeout,
	})
	return Classify(out, cmd, timeout)
}

// environment merges parent env < configured env < provider env < request
// env and returns it sorted by key.
func (t *Tool) environment(ctx context.Context, req Request) ([]string, error) {
	merged := make(map[string]string)
	if !t.opts.IsolateEnv {
		for _, kv := range t.environ() {
			if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
				merged[k] = v
			}
		}
	}
	for k, v := range t.opts.Env {
		merged[k] = v
	}
	if t.provider != nil {
		provided, err := t.provider.Env(ctx, req)
		if err != nil {
			return nil, newError(CategoryConfig, err, "failed to resolve credentials: %v", err)
		}
		for k, v := range provided {
			merged[k] = v
		}
	}
	for k, v := range req.Env {
		if k == "" || strings.ContainsAny(k, "=\x00") {
			return nil, newError(CategoryValidation, nil, "invalid environment variable name %q", k)
		}
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+merged[k])
	}
	return env, nil
}

var crewLine = regexp.MustCompile(`^([A-Za-z0-9_-]+)\.([A-Za-z0-9_-]+)(?:\s+-\s+(.*))?$`)

func parseCrewList(output string) []Info {
	var crews []Info
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		m := crewLine.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		crews = append(crews, Info{
			Package:     m[1],
			Name:        m[2],
			Description: strings.TrimSpace(m[3]),
		})
	}
	return crews
}

const noDescription = "No description available"

func parseCrewInfo(packageName, crewName, output string) Info {
	description := ""
	for _, line := range strings.Split(output, "\n") {
		if _, after, ok := strings.Cut(line, "Description:"); ok {
			description = strings.TrimSpace(after)
			break
		}
	}
	if description == "" {
		description = noDescription
	}
	return Info{
		Package:     packageName,
		Name:        crewName,
		Description: description,
	}
}
