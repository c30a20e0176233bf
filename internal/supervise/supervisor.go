package supervise

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const (
	// GracePeriod is the time we wait after SIGTERM before sending SIGKILL.
	GracePeriod = 5 * time.Second

	// killConfirmWindow bounds the wait for an exit event after SIGKILL.
	// Past it the supervisor returns with whatever output it has.
	killConfirmWindow = 2 * time.Second

	// pipeWaitDelay bounds how long Wait blocks on stdout/stderr after the
	// process itself has exited (e.g. a grandchild still holds the pipe).
	pipeWaitDelay = time.Second
)

// Spec describes one process to run.
type Spec struct {
	Path string
	Args []string
	Dir  string
	// Env is the complete environment in KEY=VALUE form.
	Env     []string
	Timeout time.Duration
}

// Outcome is the raw result of one supervised run.
type Outcome struct {
	// ExitCode is nil when the process never exited normally (signal, spawn
	// failure, or exit never observed).
	ExitCode   *int
	Stdout     []byte
	Stderr     []byte
	SpawnErr   error
	TimedOut   bool
	Cancelled  bool
	// HardKilled reports that the grace period ran out and SIGKILL was sent.
	HardKilled bool
	FinalState State
	Duration   time.Duration
}

// Supervisor runs one-shot processes with deadline enforcement.
// It holds no per-run state and is safe for concurrent use.
type Supervisor struct {
	logger      *slog.Logger
	gracePeriod time.Duration
	killConfirm time.Duration
}

// New creates a Supervisor. A nil logger discards log output.
func New(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{
		logger:      logger,
		gracePeriod: GracePeriod,
		killConfirm: killConfirmWindow,
	}
}

// Run spawns the process described by spec and blocks until it exits or the
// termination escalation gives up on it. Exactly one Outcome is returned.
//
// Timeout expiry or ctx cancellation sends SIGTERM; if the process is still
// alive after GracePeriod it gets SIGKILL.
func (s *Supervisor) Run(ctx context.Context, spec Spec) Outcome {
	start := time.Now()
	logger := s.logger.With("path", spec.Path)

	// Don't use CommandContext: termination is escalated here, not by os/exec.
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.WaitDelay = pipeWaitDelay

	var stdout, stderr syncBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		logger.Debug("worker spawn failed", "error", err)
		return Outcome{
			SpawnErr:   err,
			FinalState: Exited,
			Duration:   time.Since(start),
		}
	}
	logger.Debug("worker spawned", "pid", cmd.Process.Pid, "timeout", spec.Timeout)

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	esc := newEscalator(cmd.Process, logger, s.gracePeriod, s.killConfirm)
	defer esc.stopTimers()
	esc.arm(spec.Timeout)

	done := ctx.Done()
	out := Outcome{}
	for {
		select {
		case waitErr := <-exited:
			esc.advance(Exited)
			out.ExitCode = exitCode(cmd.ProcessState)
			if waitErr != nil && out.ExitCode == nil && !esc.signalled() {
				logger.Warn("worker wait failed", "error", waitErr)
			}
			logger.Debug("worker exited", "exit_code", derefOr(out.ExitCode, -1), "state_before_exit", esc.previous)
			return s.finish(out, esc, &stdout, &stderr, start)

		case <-esc.deadlineC:
			esc.deadlineC = nil
			if esc.terminate("timeout") {
				out.TimedOut = true
			}

		case <-done:
			done = nil
			esc.disarm()
			if esc.terminate("cancelled") {
				out.Cancelled = true
			}

		case <-esc.graceC:
			esc.graceC = nil
			if esc.kill() {
				out.HardKilled = true
			}

		case <-esc.confirmC:
			esc.confirmC = nil
			logger.Error("worker did not exit after SIGKILL, returning partial output",
				"pid", cmd.Process.Pid)
			return s.finish(out, esc, &stdout, &stderr, start)
		}
	}
}

func (s *Supervisor) finish(out Outcome, esc *escalator, stdout, stderr *syncBuffer, start time.Time) Outcome {
	out.Stdout = stdout.Bytes()
	out.Stderr = stderr.Bytes()
	out.FinalState = esc.state
	out.Duration = time.Since(start)
	return out
}

// escalator owns the termination state machine and its timer handles for a
// single process. Only the Run loop touches it.
type escalator struct {
	proc        *os.Process
	logger      *slog.Logger
	gracePeriod time.Duration
	killConfirm time.Duration

	state    State
	previous State

	deadline *time.Timer
	grace    *time.Timer
	confirm  *time.Timer

	// nil channels block forever, disabling their select case
	deadlineC <-chan time.Time
	graceC    <-chan time.Time
	confirmC  <-chan time.Time
}

func newEscalator(proc *os.Process, logger *slog.Logger, grace, confirm time.Duration) *escalator {
	return &escalator{
		proc:        proc,
		logger:      logger,
		gracePeriod: grace,
		killConfirm: confirm,
		state:       Running,
		previous:    Running,
	}
}

// arm starts the deadline timer. A non-positive timeout disables it.
func (e *escalator) arm(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	e.deadline = time.NewTimer(timeout)
	e.deadlineC = e.deadline.C
}

// advance moves to the given state. It reports false, and changes nothing,
// when the transition is not allowed.
func (e *escalator) advance(to State) bool {
	if !CanTransition(e.state, to) {
		return false
	}
	e.previous = e.state
	e.state = to
	if to == Exited {
		e.stopTimers()
	}
	return true
}

// disarm stops the deadline timer. Once termination has started for any
// reason, a later deadline must not restart it.
func (e *escalator) disarm() {
	if e.deadline != nil {
		e.deadline.Stop()
	}
	e.deadlineC = nil
}

// terminate sends SIGTERM and starts the grace timer. It does nothing unless
// the process is still running, so each run gets at most one SIGTERM.
func (e *escalator) terminate(reason string) bool {
	if !e.advance(SoftTerminateSent) {
		e.logger.Debug("termination already in progress", "reason", reason, "state", e.state)
		return false
	}
	e.disarm()
	e.logger.Warn("terminating worker, sending SIGTERM", "reason", reason, "grace_period", e.gracePeriod)
	if err := e.proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		e.logger.Error("failed to send SIGTERM", "error", err)
	}
	e.grace = time.NewTimer(e.gracePeriod)
	e.graceC = e.grace.C
	return true
}

// kill sends SIGKILL and starts the confirmation timer. It only acts after
// SIGTERM, once.
func (e *escalator) kill() bool {
	if !e.advance(HardKillSent) {
		e.logger.Error("illegal termination state transition", "from", e.state, "to", HardKillSent)
		return false
	}
	e.logger.Warn("worker did not exit after SIGTERM, sending SIGKILL")
	if err := e.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		e.logger.Error("failed to send SIGKILL", "error", err)
	}
	e.confirm = time.NewTimer(e.killConfirm)
	e.confirmC = e.confirm.C
	return true
}

func (e *escalator) signalled() bool {
	return e.previous == SoftTerminateSent || e.previous == HardKillSent
}

func (e *escalator) stopTimers() {
	for _, t := range []*time.Timer{e.deadline, e.grace, e.confirm} {
		if t != nil {
			t.Stop()
		}
	}
	e.deadlineC, e.graceC, e.confirmC = nil, nil, nil
}

func exitCode(ps *os.ProcessState) *int {
	if ps == nil {
		return nil
	}
	code := ps.ExitCode()
	if code < 0 {
		return nil
	}
	return &code
}

func derefOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
