// Package supervise runs one-shot worker processes and enforces their deadline.
//
// Each Run owns exactly one process from spawn to exit:
//   - stdout and stderr are captured incrementally into unbounded buffers
//   - a deadline timer fires SIGTERM and starts a 5s grace timer
//   - if the grace timer fires first, SIGKILL is sent
//   - ctx cancellation takes the same path as the deadline
//
// Termination state (Running, SoftTerminateSent, HardKillSent, Exited) is an
// explicit enum advanced by a single select loop; the first exit event stops
// every outstanding timer, so one Outcome is produced per run.
//
// Known limitation: if the process is not reaped within a short window after
// SIGKILL, Run returns the partial output without confirming termination.
package supervise
