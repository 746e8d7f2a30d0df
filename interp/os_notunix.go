// Copyright (c) 2017, Andrey Nering <andrey.nering@gmail.com>
// See LICENSE for licensing information

//go:build !unix

package interp

import (
	"os"

	"mvdan.cc/fsh"
)

// reap waits for the child through os/exec. Without wait4 there is no way to
// poll, so a non-blocking reap always reports the child as still running.
func (c *Child) reap(block bool) (status WaitStatus, done bool, err error) {
	if !block {
		return WaitStatus{}, false, nil
	}
	state, err := c.cmd.Process.Wait()
	if err != nil {
		return WaitStatus{}, false, fsh.Wrap(fsh.Failure, "wait", err)
	}
	c.release()
	status.code = state.ExitCode()
	return status, true, nil
}

// canEnter is a no-op on Windows.
func canEnter(string) bool {
	return true
}

func raiseAbort() {
	os.Exit(134)
}
