// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package interp implements the execution core of the shell.
//
// A [State] evaluates command trees from package ast: it spawns external
// programs, connects pipeline stages, applies redirections, runs builtins and
// reaps the processes it started. A State is meant to live for a whole shell
// session, evaluating one tree per input line.
package interp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"mvdan.cc/fsh"
	"mvdan.cc/fsh/vars"
)

var discardLogger = log.New(io.Discard)

func invalidTree(op string) error {
	return fsh.New(fsh.EngineError, op, "invalid abstract syntax tree")
}

// State is the session state shared by every evaluation: the processes still
// being tracked, the pipe between pipeline stages, and the current
// directory. It refers to a variable store which it does not own.
//
// A State is not safe for concurrent use.
type State struct {
	vars *vars.Store
	dir  string

	handler ProcessHandler
	pipe    Pipe

	stdin, stdout, stderr *os.File

	logger *log.Logger
	abort  func()

	lastReaped []Reaped
}

// Option is a function which can be passed to [New] to alter the State.
type Option func(*State) error

// New creates a new State, applying a number of options. The store may be
// nil, in which case an empty one is used.
//
// By default, children inherit the shell's own standard streams, and the
// current directory is the process's.
func New(store *vars.Store, opts ...Option) (*State, error) {
	if store == nil {
		store = &vars.Store{}
	}
	s := &State{
		vars:   store,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: discardLogger,
		abort:  raiseAbort,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.dir == "" {
		if err := Dir("")(s); err != nil {
			return nil, err
		}
	}
	s.handler.logger = s.logger
	return s, nil
}

// Dir sets the initial current directory. If empty, the process's current
// directory is used.
func Dir(path string) Option {
	return func(s *State) error {
		if path == "" {
			path, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("could not get current dir: %w", err)
			}
			s.dir = path
			return nil
		}
		path, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("could not get absolute dir: %w", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("could not stat: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
		s.dir = path
		return nil
	}
}

// StdIO configures the standard streams inherited by children and used by
// builtins. A nil file leaves that stream closed in children.
func StdIO(in, out, err *os.File) Option {
	return func(s *State) error {
		s.stdin, s.stdout, s.stderr = in, out, err
		return nil
	}
}

// Logger sets the logger for debug events such as spawning and reaping
// processes. By default, nothing is logged.
func Logger(l *log.Logger) Option {
	return func(s *State) error {
		if l == nil {
			l = discardLogger
		}
		s.logger = l
		return nil
	}
}

// AbortHandler sets the function run by the abort builtin. By default, the
// shell sends itself SIGABRT.
func AbortHandler(fn func()) Option {
	return func(s *State) error {
		if fn == nil {
			fn = raiseAbort
		}
		s.abort = fn
		return nil
	}
}

// Vars returns the variable store.
func (s *State) Vars() *vars.Store { return s.vars }

// Dir returns the current directory.
func (s *State) Dir() string { return s.dir }

// Handler returns the tracker of the processes started by the shell.
func (s *State) Handler() *ProcessHandler { return &s.handler }

// Pipe returns the pipe connecting pipeline stages.
func (s *State) Pipe() *Pipe { return &s.pipe }

// LastReaped returns the processes reaped at the end of the last evaluated
// pipeline or command.
func (s *State) LastReaped() []Reaped { return s.lastReaped }

// Reap collects every finished background job without blocking.
// It is meant to be called between evaluations, such as before each prompt.
func (s *State) Reap() ([]Reaped, error) {
	return s.handler.Reap()
}

// Close kills and reaps every process still tracked, such as running
// background jobs.
func (s *State) Close() error {
	s.pipe.Quit()
	_, err := s.handler.Drain(0)
	return err
}

// ExitStatus is returned when the exit builtin runs. The shell session is
// meant to end with the given status.
type ExitStatus uint8

func (s ExitStatus) Error() string { return fmt.Sprintf("exit status %d", s) }

// IsExitStatus checks whether error contains an exit status and returns it.
func IsExitStatus(err error) (status uint8, ok bool) {
	var es ExitStatus
	if errors.As(err, &es) {
		return uint8(es), true
	}
	return 0, false
}
