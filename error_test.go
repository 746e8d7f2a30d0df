// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package fsh_test

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/go-quicktest/qt"

	"mvdan.cc/fsh"
)

func TestErrorIsKind(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("stage 2: %w", fsh.New(fsh.BrokenPipe, "pipe send", "pipe is in recvable state"))
	qt.Assert(t, qt.ErrorIs(err, fsh.BrokenPipe))
	qt.Assert(t, qt.IsFalse(errors.Is(err, fsh.NotFound)))
	qt.Assert(t, qt.Equals(fsh.KindOf(err), fsh.BrokenPipe))
	qt.Assert(t, qt.Equals(err.Error(), "stage 2: pipe send: broken pipe: pipe is in recvable state"))
}

func TestFromOS(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want fsh.Kind
	}{
		{&fs.PathError{Op: "open", Path: "x", Err: syscall.ENOENT}, fsh.NotFound},
		{&fs.PathError{Op: "open", Path: "x", Err: syscall.EACCES}, fsh.PermissionDenied},
		{os.NewSyscallError("wait4", syscall.EINTR), fsh.Interrupted},
		{os.NewSyscallError("kill", syscall.ESRCH), fsh.Failure},
	}
	for _, test := range tests {
		err := fsh.FromOS(fsh.Failure, "op", test.err)
		qt.Check(t, qt.Equals(fsh.KindOf(err), test.want), qt.Commentf("%v", test.err))
		qt.Check(t, qt.ErrorIs(err, test.err))
	}
	qt.Assert(t, qt.IsNil(fsh.FromOS(fsh.Failure, "op", nil)))
}

func TestKindString(t *testing.T) {
	t.Parallel()
	qt.Assert(t, qt.Equals(fsh.EngineError.String(), "engine error"))
	qt.Assert(t, qt.Equals(fsh.Kind(200).String(), "Kind(200)"))
}
