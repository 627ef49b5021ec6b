package utils

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// Command describes one external tool invocation
type Command struct {
	Name string
	Args []string
	// Env entries are appended to the current process environment for this child only.
	Env []string
	Dir string
}

// Runner abstracts process execution so subprocess engines can be stubbed in tests
type Runner interface {
	Run(ctx context.Context, cmd Command) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run executes the command and captures both output streams
func (ExecRunner) Run(ctx context.Context, c Command) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
