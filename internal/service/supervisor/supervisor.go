package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-ps"
	"go.uber.org/multierr"

	"github.com/oshokin/node-bootstrap/internal/logger"
)

// Process is a named command line to launch as a detached background service.
type Process struct {
	// Name is the short service name used in logs.
	Name string
	// Path is the executable to run.
	Path string
	// Args are the command-line arguments.
	Args []string
}

// Supervisor launches background processes fire-and-forget. It confirms only
// that the spawn was accepted: no health checks, no restarts, no exit-status
// collection. Ordering between launches is a caller responsibility.
type Supervisor struct{}

// New creates a supervisor.
func New() *Supervisor {
	return &Supervisor{}
}

// Launch spawns the process detached: its own session, output discarded, so
// it keeps running when this process tree changes state. The command is
// deliberately built without a context so that cancellation of the bootstrap
// never kills already-launched children.
func (s *Supervisor) Launch(ctx context.Context, p Process) error {
	cmd := detachedCommand(p.Path, p.Args...)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", p.Name, err)
	}

	pid := cmd.Process.Pid

	// Reap only. The exit status is intentionally ignored.
	go func() {
		_ = cmd.Wait()
	}()

	logger.InfoKV(ctx, "Background process started", "name", p.Name, "pid", pid)

	return nil
}

// LaunchAll issues every launch before waiting on any spawn confirmation.
// Failures are aggregated; prior successful launches are not rolled back.
func (s *Supervisor) LaunchAll(ctx context.Context, procs []Process) error {
	var (
		wg      sync.WaitGroup
		results = make([]error, len(procs))
	)

	for i, p := range procs {
		i, p := i, p

		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i] = s.Launch(ctx, p)
		}()
	}

	wg.Wait()

	return multierr.Combine(results...)
}

// TerminateStale kills leftover processes from a previous bootstrap run,
// matched by executable name. Best effort: failures are logged and skipped.
func (s *Supervisor) TerminateStale(ctx context.Context, names []string) {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[filepath.Base(name)] = struct{}{}
	}

	processList, err := ps.Processes()
	if err != nil {
		logger.WarnKV(ctx, "Unable to list processes", "error", err)
		return
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		processID := process.Pid()
		if processID == thisProcessID {
			continue
		}

		if _, found := wanted[process.Executable()]; !found {
			continue
		}

		runningProcess, err := os.FindProcess(processID)
		if err != nil {
			continue
		}

		if err = runningProcess.Kill(); err != nil {
			logger.WarnKV(ctx, "Unable to terminate stale process",
				"name", process.Executable(), "pid", processID, "error", err)

			continue
		}

		logger.InfoKV(ctx, "Terminated stale process",
			"name", process.Executable(), "pid", processID)
	}
}
