// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package fsh holds the error taxonomy shared by the shell's packages.
//
// Every failure surfaced by the evaluator is an [*Error] carrying a [Kind].
// Since Kind itself implements error, callers can classify failures with
// [errors.Is]:
//
//	if errors.Is(err, fsh.NotFound) {
//		// program missing from PATH
//	}
package fsh

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Kind classifies an [Error].
type Kind uint8

const (
	_ Kind = iota

	NotFound         // external program missing from PATH, or missing file
	EngineError      // command tree shape invariant violated
	BrokenPipe       // pipe handoff protocol violation
	Failure          // an OS kill or wait call failed
	PermissionDenied // the OS denied access
	InvalidInput     // bad argument, path or descriptor
	Interrupted      // a system call was interrupted
)

var kindNames = [...]string{
	NotFound:         "not found",
	EngineError:      "engine error",
	BrokenPipe:       "broken pipe",
	Failure:          "failure",
	PermissionDenied: "permission denied",
	InvalidInput:     "invalid input",
	Interrupted:      "interrupted",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Error implements the error interface, so that a Kind can be used as the
// target of [errors.Is].
func (k Kind) Error() string { return k.String() }

// Error is the error type returned by the shell's packages.
type Error struct {
	Kind Kind
	// Op describes what was being done, such as "spawn" or "pipe send".
	Op string
	// Msg is an optional human readable detail.
	Msg string
	// Err is the underlying error, if any.
	Err error
}

// New returns an [*Error] with the given kind, operation and message.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap returns an [*Error] with the given kind which wraps err.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the same Kind as e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// FromOS wraps an error returned by the operating system, choosing a kind from
// the error itself when it is recognised and falling back to def otherwise.
// A nil err results in a nil error.
func FromOS(def Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	kind := def
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = NotFound
	case errors.Is(err, fs.ErrPermission):
		kind = PermissionDenied
	case errors.Is(err, syscall.EINTR):
		kind = Interrupted
	}
	return Wrap(kind, op, err)
}

// KindOf returns the kind of the first [*Error] in err's chain,
// or zero if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
