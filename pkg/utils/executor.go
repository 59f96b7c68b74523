package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	kexec "k8s.io/utils/exec"
)

// Executor runs an external command and returns its captured stdout. A
// non-zero exit status is reported as an error.
type Executor interface {
	Execute(cmd string, args []string) (string, error)
}

// LocalExecutor runs commands on this host.
type LocalExecutor struct {
	exec    kexec.Interface
	timeout time.Duration
}

func NewExecutor() *LocalExecutor {
	return &LocalExecutor{exec: kexec.New()}
}

// NewExecutorWithInterface is used by tests to inject a fake exec.Interface.
func NewExecutorWithInterface(e kexec.Interface) *LocalExecutor {
	return &LocalExecutor{exec: e}
}

// SetTimeout bounds every command run through the executor. Zero disables
// the bound.
func (e *LocalExecutor) SetTimeout(timeout time.Duration) {
	e.timeout = timeout
}

func (e *LocalExecutor) Execute(cmd string, args []string) (string, error) {
	ctx := context.Background()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	logrus.Debugf("executing %s %s", cmd, strings.Join(args, " "))
	// #nosec G204
	output, err := e.exec.CommandContext(ctx, cmd, args...).Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return string(output), fmt.Errorf("command %s timed out after %v", cmd, e.timeout)
		}
		if exitErr, ok := err.(kexec.ExitError); ok {
			return string(output), fmt.Errorf("command %s exited with status %d: %w", cmd, exitErr.ExitStatus(), err)
		}
		return string(output), fmt.Errorf("failed to execute %s: %w", cmd, err)
	}
	return string(output), nil
}
