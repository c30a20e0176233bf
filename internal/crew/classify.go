package crew

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/mattjoyce/crewtool/internal/protocol"
	"github.com/mattjoyce/crewtool/internal/supervise"
)

const (
	msgExecutionFailed = "crew execution failed"
	msgReportedFailure = "crew reported failure"
	msgCancelled       = "crew execution cancelled"
)

// Classify turns a raw process outcome into a Result. It is a pure function:
// the same inputs always produce the same Result. cmd is the command that was
// run and timeout the deadline that applied to it.
func Classify(out supervise.Outcome, cmd Command, timeout time.Duration) Result {
	res := Result{
		ExitCode:   out.ExitCode,
		DurationMs: out.Duration.Milliseconds(),
	}

	switch {
	case out.TimedOut:
		res.Category = CategorySubprocess
		res.Error = fmt.Sprintf("crew execution timed out after %dms", timeout.Milliseconds())
		res.Output = strings.TrimSpace(string(out.Stdout))
		return res

	case out.Cancelled:
		res.Category = CategorySubprocess
		res.Error = msgCancelled
		res.Output = strings.TrimSpace(string(out.Stdout))
		return res

	case out.SpawnErr != nil:
		if isNotFound(out.SpawnErr) {
			res.Category = CategoryNotInstalled
			res.Error = notInstalledMessage(cmd, out.SpawnErr)
		} else {
			res.Category = CategorySubprocess
			res.Error = fmt.Sprintf("failed to spawn process: %v", out.SpawnErr)
		}
		return res

	case out.ExitCode != nil && *out.ExitCode == 0:
		parsed := protocol.ParseResponse(out.Stdout)
		res.Output = parsed.Output
		if parsed.DurationMs != nil {
			res.DurationMs = *parsed.DurationMs
		}
		if parsed.Success {
			res.Success = true
			return res
		}
		res.Category = CategoryCrew
		res.Error = firstNonEmpty(strings.TrimSpace(parsed.Error), msgReportedFailure)
		return res

	default:
		res.Category = CategoryCrew
		res.Output = strings.TrimSpace(string(out.Stdout))
		res.Error = firstNonEmpty(
			strings.TrimSpace(string(out.Stderr)),
			res.Output,
			msgExecutionFailed,
		)
		return res
	}
}

// isNotFound reports whether a spawn error means the executable is missing.
// A missing working directory also surfaces as ENOENT, but from chdir; that
// is a subprocess failure, not a missing install.
func isNotFound(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Op == "chdir" {
		return false
	}
	return errors.Is(err, fs.ErrNotExist)
}

func notInstalledMessage(cmd Command, err error) string {
	return fmt.Sprintf("crew worker executable %q not found (%v); install it and make sure it is on PATH, or set worker.executable", cmd.Path, err) +
		installHint(cmd.Path)
}

func installHint(path string) string {
	switch InferStrategy(path) {
	case StrategyWrapped:
		return " (hint: install uv from https://docs.astral.sh/uv/)"
	case StrategyModule:
		return " (hint: install Python 3 and run `pip install " + DefaultWorkerBinary + "`)"
	default:
		return " (hint: install the worker with `pip install " + DefaultWorkerBinary + "`)"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
