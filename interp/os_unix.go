// Copyright (c) 2017, Andrey Nering <andrey.nering@gmail.com>
// See LICENSE for licensing information

//go:build unix

package interp

import (
	"errors"

	"golang.org/x/sys/unix"

	"mvdan.cc/fsh"
)

// reap collects the exit status of the child with wait4. If block is false
// and the child is still running, done is false.
//
// The status is never collected through os/exec, so the handle is released
// by hand once the process is gone.
func (c *Child) reap(block bool) (status WaitStatus, done bool, err error) {
	opts := 0
	if !block {
		opts = unix.WNOHANG
	}
	var ws unix.WaitStatus
	for {
		pid, err := unix.Wait4(c.Pid, &ws, opts, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return WaitStatus{}, false, fsh.Wrap(fsh.Failure, "wait", err)
		}
		if pid == 0 {
			return WaitStatus{}, false, nil
		}
		break
	}
	c.release()
	switch {
	case ws.Signaled():
		status.signal = ws.Signal()
	default:
		status.code = ws.ExitStatus()
	}
	return status, true, nil
}

// canEnter reports whether the current user may search the directory.
func canEnter(dir string) bool {
	return unix.Access(dir, unix.X_OK) == nil
}

// raiseAbort sends SIGABRT to the shell itself.
func raiseAbort() {
	unix.Kill(unix.Getpid(), unix.SIGABRT)
}
