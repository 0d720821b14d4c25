//go:build windows

package supervisor

import (
	"os"
	"os/exec"
)

func newShellCmd(command string) *exec.Cmd {
	return exec.Command("cmd", "/C", command)
}

func setSysProcAttr(cmd *exec.Cmd) {}

// signalProcessTree has no process-group signal on Windows; it kills the
// directly-spawned process only.
func signalProcessTree(pid int, force bool) {
	if p, err := os.FindProcess(pid); err == nil {
		p.Kill()
	}
}
