//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// detachedCommand builds a command running in its own session with stdio
// connected to the null device, so the child survives termination of this
// process and its controlling terminal.
func detachedCommand(path string, args ...string) *exec.Cmd {
	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	return cmd
}
