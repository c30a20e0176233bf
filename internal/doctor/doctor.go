// Package doctor checks a crewtool configuration and the worker it points at.
package doctor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattjoyce/crewtool/internal/config"
	"github.com/mattjoyce/crewtool/internal/crew"
	"github.com/mattjoyce/crewtool/internal/history"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// LookPathFunc resolves an executable name, as exec.LookPath does.
type LookPathFunc func(file string) (string, error)

// longTimeout is where default_timeout starts to look like a mistake.
const longTimeout = time.Hour

// Doctor validates a loaded config.
type Doctor struct {
	cfg      *config.Config
	lookPath LookPathFunc
}

// New creates a Doctor. lookPath is injected so tests need no real PATH.
func New(cfg *config.Config, lookPath LookPathFunc) *Doctor {
	return &Doctor{cfg: cfg, lookPath: lookPath}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateWorkerOptions(r)
	d.validateExecutable(r)
	d.validateWorkerDir(r)
	d.validateTimeout(r)
	d.validateAPIConfig(r)
	d.validateHistory(r)
	d.warnMissingEnvVars(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) validateWorkerOptions(r *Result) {
	if _, err := crew.New(d.cfg.WorkerOptions()); err != nil {
		d.addError(r, string(crew.CategoryConfig), "worker", err.Error())
	}
}

// validateExecutable checks that the program crewtool would spawn resolves.
// Under the wrapped strategy that is the launcher, not the worker binary.
func (d *Doctor) validateExecutable(r *Result) {
	cmd := crew.Build(d.cfg.WorkerOptions(), nil)
	if _, err := d.lookPath(cmd.Path); err != nil {
		d.addError(r, string(crew.CategoryNotInstalled), "worker.executable",
			fmt.Sprintf("%q not found: %v", cmd.Path, err))
	}
}

func (d *Doctor) validateWorkerDir(r *Result) {
	dir := d.cfg.Worker.Dir
	if dir == "" {
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		d.addError(r, string(crew.CategoryConfig), "worker.dir",
			fmt.Sprintf("working directory %s does not exist", dir))
		return
	}
	if crew.Strategy(d.cfg.Worker.Strategy) == crew.StrategyDirect {
		return
	}
	if _, err := os.Stat(filepath.Join(dir, "pyproject.toml")); err != nil {
		d.addWarning(r, "worker", "worker.dir",
			fmt.Sprintf("%s has no pyproject.toml; the launcher may not find the worker package", dir))
	}
}

func (d *Doctor) validateTimeout(r *Result) {
	timeout := d.cfg.Worker.DefaultTimeout
	switch {
	case timeout <= 0:
		d.addError(r, string(crew.CategoryConfig), "worker.default_timeout", "default_timeout must be positive")
	case timeout > longTimeout:
		d.addWarning(r, "worker", "worker.default_timeout",
			fmt.Sprintf("default_timeout %s is very long; a hung crew holds a slot that long", timeout))
	}
}

// validateAPIConfig warns about an unauthenticated API reachable off-host.
func (d *Doctor) validateAPIConfig(r *Result) {
	if d.cfg.API.Token != "" {
		return
	}
	host, _, err := net.SplitHostPort(d.cfg.API.Listen)
	if err != nil {
		d.addError(r, "api", "api.listen", fmt.Sprintf("invalid listen address %q: %v", d.cfg.API.Listen, err))
		return
	}
	if !isLoopback(host) {
		d.addWarning(r, "api", "api.token",
			fmt.Sprintf("API listens on %s without a token; anyone who can reach it can run crews", d.cfg.API.Listen))
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (d *Doctor) validateHistory(r *Result) {
	if !d.cfg.History.Enabled {
		return
	}
	if err := history.CheckLocalFilesystem(d.cfg.History.Path); err != nil {
		d.addError(r, "history", "history.path", err.Error())
	}
}

// warnMissingEnvVars reports credentials whose ${VAR} did not resolve. They
// only fail when their package is invoked.
func (d *Doctor) warnMissingEnvVars(r *Result) {
	store := d.cfg.CredentialStore()
	for _, pkg := range store.Packages() {
		if _, err := store.Env(context.Background(), crew.Request{Package: pkg}); err != nil {
			d.addWarning(r, "env_vars", "credentials."+pkg, err.Error())
		}
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	switch {
	case r.Valid && len(r.Warnings) == 0:
		b.WriteString("Configuration valid.\n")
		return b.String()
	case r.Valid:
		fmt.Fprintf(&b, "Configuration valid (%d warning(s))\n", len(r.Warnings))
	default:
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		writeIssue(&b, "ERROR", e)
	}
	for _, w := range r.Warnings {
		writeIssue(&b, "WARN ", w)
	}
	return b.String()
}

func writeIssue(b *strings.Builder, level string, i Issue) {
	if i.Field != "" {
		fmt.Fprintf(b, "  %s [%s] %s: %s\n", level, i.Category, i.Field, i.Message)
		return
	}
	fmt.Fprintf(b, "  %s [%s] %s\n", level, i.Category, i.Message)
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
