//go:build windows

package player

import (
	"fmt"
	"os/exec"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	// Windows manages process groups differently. Returning nil is safe,
	// or we could use CreationFlags = 0x08000000 (CREATE_NO_WINDOW).
	return nil
}

func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// suspendProcess is unavailable on Windows; callers fall back to a restart.
func suspendProcess(cmd *exec.Cmd) error {
	return fmt.Errorf("process suspension not supported on windows")
}

// resumeProcess is unavailable on Windows.
func resumeProcess(cmd *exec.Cmd) error {
	return fmt.Errorf("process resumption not supported on windows")
}
