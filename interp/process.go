// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/charmbracelet/log"

	"mvdan.cc/fsh"
)

// Child is a started external program which has not been reaped yet.
//
// A Child owns its OS process handle. The only way to let go of it is to reap
// the process, which happens in [ProcessHandler.Wait] and friends; a Child is
// never silently detached.
type Child struct {
	Pid        int
	Args       []string
	Background bool

	cmd    *exec.Cmd
	stdout *os.File
}

// TakeStdout returns the read end of the child's captured standard output,
// if any, handing its ownership to the caller. Subsequent calls return nil.
func (c *Child) TakeStdout() *os.File {
	f := c.stdout
	c.stdout = nil
	return f
}

// release frees the process handle once the process has been reaped.
func (c *Child) release() {
	if c.stdout != nil {
		c.stdout.Close()
		c.stdout = nil
	}
	c.cmd.Process.Release()
}

// WaitStatus is the way in which a reaped process ended.
type WaitStatus struct {
	code   int
	signal syscall.Signal
}

// Success reports whether the process exited with status zero.
func (s WaitStatus) Success() bool { return s.code == 0 && s.signal == 0 }

// ExitCode returns the exit status of the process, or -1 if a signal
// terminated it.
func (s WaitStatus) ExitCode() int {
	if s.signal != 0 {
		return -1
	}
	return s.code
}

// Signaled reports whether a signal terminated the process.
func (s WaitStatus) Signaled() bool { return s.signal != 0 }

// Signal returns the signal which terminated the process, if any.
func (s WaitStatus) Signal() syscall.Signal { return s.signal }

func (s WaitStatus) String() string {
	if s.signal != 0 {
		return "signal: " + s.signal.String()
	}
	return fmt.Sprintf("exit status %d", s.code)
}

// Reaped is the final status of a process collected by a [ProcessHandler].
type Reaped struct {
	Pid    int
	Status WaitStatus
}

// ProcessHandler tracks the processes started by the shell until they are
// reaped. Foreground processes are waited for; background ones are only
// polled.
//
// The zero value is ready to use. It is not safe for concurrent use.
type ProcessHandler struct {
	entries []*Child
	logger  *log.Logger
}

func (h *ProcessHandler) log() *log.Logger {
	if h.logger == nil {
		return discardLogger
	}
	return h.logger
}

// Push records a started child and returns its pid.
func (h *ProcessHandler) Push(c *Child, background bool) int {
	c.Background = background
	h.entries = append(h.entries, c)
	h.log().Debug("push", "pid", c.Pid, "argv", c.Args, "background", background)
	return c.Pid
}

// Get returns the tracked child with the given pid.
func (h *ProcessHandler) Get(pid int) (*Child, bool) {
	for _, c := range h.entries {
		if c.Pid == pid {
			return c, true
		}
	}
	return nil, false
}

// Len returns the number of tracked children.
func (h *ProcessHandler) Len() int { return len(h.entries) }

// Pids returns the pids of the tracked children, oldest first.
func (h *ProcessHandler) Pids() []int {
	pids := make([]int, len(h.entries))
	for i, c := range h.entries {
		pids[i] = c.Pid
	}
	return pids
}

// Kill sends SIGKILL to a tracked child. The child stays tracked until it is
// reaped.
func (h *ProcessHandler) Kill(pid int) error {
	c, ok := h.Get(pid)
	if !ok {
		return fsh.New(fsh.InvalidInput, "kill", fmt.Sprintf("no such process: %d", pid))
	}
	h.log().Debug("kill", "pid", pid)
	if err := c.cmd.Process.Kill(); err != nil {
		return fsh.Wrap(fsh.Failure, "kill", err)
	}
	return nil
}

// KillAll sends SIGKILL to every tracked child.
func (h *ProcessHandler) KillAll() error {
	var errs []error
	for _, c := range h.entries {
		if err := h.Kill(c.Pid); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until every foreground child exits, and polls every background
// child without blocking. Reaped children stop being tracked; background
// children which are still running are kept for a later call.
//
// Every child is visited even if reaping one of them fails.
func (h *ProcessHandler) Wait() ([]Reaped, error) {
	return h.collect(0, func(c *Child) bool { return !c.Background })
}

// Reap polls every tracked child without blocking.
func (h *ProcessHandler) Reap() ([]Reaped, error) {
	return h.collect(0, func(*Child) bool { return false })
}

// Drain kills the children tracked after the first mark entries and waits
// for all of them, foreground or background, to exit.
// Older entries are left untouched.
func (h *ProcessHandler) Drain(mark int) ([]Reaped, error) {
	if mark < 0 || mark > len(h.entries) {
		mark = len(h.entries)
	}
	var errs []error
	for _, c := range h.entries[mark:] {
		if err := h.Kill(c.Pid); err != nil {
			errs = append(errs, err)
		}
	}
	reaped, err := h.collect(mark, func(*Child) bool { return true })
	return reaped, errors.Join(append(errs, err)...)
}

// collect reaps the children from index start onwards, blocking on those for
// which block returns true.
func (h *ProcessHandler) collect(start int, block func(*Child) bool) ([]Reaped, error) {
	var reaped []Reaped
	var errs []error
	kept := h.entries[:start]
	for _, c := range h.entries[start:] {
		status, done, err := c.reap(block(c))
		switch {
		case err != nil:
			// The process can no longer be waited for, so stop tracking it.
			c.release()
			errs = append(errs, err)
		case done:
			h.log().Debug("reap", "pid", c.Pid, "status", status)
			reaped = append(reaped, Reaped{Pid: c.Pid, Status: status})
		default:
			kept = append(kept, c)
		}
	}
	clear(h.entries[len(kept):])
	h.entries = kept
	return reaped, errors.Join(errs...)
}
