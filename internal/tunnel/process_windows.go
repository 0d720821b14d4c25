//go:build windows

package tunnel

import (
	"os"
	"os/exec"
)

func setSysProcAttr(cmd *exec.Cmd) {}

func signalProcessTree(pid int, force bool) {
	if p, err := os.FindProcess(pid); err == nil {
		p.Kill()
	}
}
