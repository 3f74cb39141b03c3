//go:build windows

package supervisor

import "os/exec"

// detachedCommand starts the target through `cmd.exe /C start` so the child
// is not tied to this console, mirroring the unix session detach.
func detachedCommand(path string, args ...string) *exec.Cmd {
	full := append([]string{"/C", "start", "", path}, args...)

	return exec.Command("cmd.exe", full...)
}
