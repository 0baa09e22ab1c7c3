//go:build windows

package process

import (
	"os"
	"os/exec"
)

func setProcessGroup(_ *exec.Cmd) {}

func killProcessGroup(p *os.Process) error {
	return p.Kill()
}
