// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"

	"mvdan.cc/fsh"
	"mvdan.cc/fsh/ast"
	"mvdan.cc/fsh/vars"
)

func redirectState(t *testing.T) *State {
	t.Helper()
	s, err := New(vars.New("NAME=named.txt"), Dir(t.TempDir()), StdIO(nil, nil, nil))
	qt.Assert(t, qt.IsNil(err))
	return s
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}

func TestRedirectFiles(t *testing.T) {
	t.Parallel()
	s := redirectState(t)
	table := fdTable{nil, nil, nil}
	opened, err := s.redirect(&table, []*ast.Redirect{
		ast.NewRedirect(ast.Write, &ast.Lit{Value: "out.txt"}),
		ast.NewRedirect(ast.Read, &ast.Var{Name: "NAME"}),
		{Target: &ast.Fd{N: 4}, Source: &ast.Num{Value: 3}, Op: ast.Write},
	})
	defer closeAll(opened)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(opened, 3))
	qt.Assert(t, qt.HasLen(table, 5))

	qt.Assert(t, qt.Equals(table[0].Name(), filepath.Join(s.Dir(), "named.txt")))
	qt.Assert(t, qt.Equals(table[1].Name(), filepath.Join(s.Dir(), "out.txt")))
	qt.Assert(t, qt.IsNil(table[2]))
	qt.Assert(t, qt.IsNil(table[3]))
	qt.Assert(t, qt.Equals(table[4].Name(), filepath.Join(s.Dir(), "3")))
	for _, name := range []string{"out.txt", "named.txt", "3"} {
		_, err := os.Stat(filepath.Join(s.Dir(), name))
		qt.Check(t, qt.IsNil(err))
	}
}

func TestRedirectNoTruncate(t *testing.T) {
	t.Parallel()
	s := redirectState(t)
	path := filepath.Join(s.Dir(), "f")
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte("hello world"), 0o644)))

	f, err := s.openRedirect("f")
	qt.Assert(t, qt.IsNil(err))
	_, err = f.WriteString("HEY")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNil(f.Close()))

	data, err := os.ReadFile(path)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(string(data), "HEYlo world"))
}

func TestRedirectDup(t *testing.T) {
	t.Parallel()
	s := redirectState(t)
	out, err := os.CreateTemp(t.TempDir(), "")
	qt.Assert(t, qt.IsNil(err))
	defer out.Close()

	table := fdTable{nil, out, nil}
	opened, err := s.redirect(&table, []*ast.Redirect{
		{Target: &ast.Fd{N: 2}, Source: &ast.Fd{N: 1}, Op: ast.Write},
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(opened, 0))
	qt.Assert(t, qt.Equals(table[2], out))

	// Redirections apply in order, so duplicating before replacing keeps
	// the old file.
	table = fdTable{nil, out, nil}
	opened, err = s.redirect(&table, []*ast.Redirect{
		{Target: &ast.Fd{N: 2}, Source: &ast.Fd{N: 1}, Op: ast.Write},
		ast.NewRedirect(ast.Write, &ast.Lit{Value: "file"}),
	})
	defer closeAll(opened)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(table[2], out))
	qt.Assert(t, qt.Equals(table[1], opened[0]))
}

func TestRedirectErrors(t *testing.T) {
	t.Parallel()
	s := redirectState(t)
	tests := []struct {
		rd   *ast.Redirect
		want fsh.Kind
	}{
		{&ast.Redirect{Target: &ast.Fd{N: 0}, Source: &ast.Fd{N: 7}, Op: ast.Read}, fsh.InvalidInput},
		{&ast.Redirect{Target: &ast.Fd{N: -1}, Source: &ast.Lit{Value: "f"}, Op: ast.Write}, fsh.InvalidInput},
		{&ast.Redirect{Target: &ast.Lit{Value: "1"}, Source: &ast.Lit{Value: "f"}, Op: ast.Write}, fsh.EngineError},
		{ast.NewRedirect(ast.Write, &ast.Var{Name: "UNSET"}), fsh.InvalidInput},
		{ast.NewRedirect(ast.Write, &ast.Lit{Value: "missing/dir/f"}), fsh.NotFound},
	}
	for _, test := range tests {
		table := fdTable{nil, nil, nil}
		opened, err := s.redirect(&table, []*ast.Redirect{test.rd})
		closeAll(opened)
		qt.Check(t, qt.ErrorIs(err, test.want), qt.Commentf("%s", test.rd))
	}
}

func TestFdTableSetup(t *testing.T) {
	t.Parallel()
	f, err := os.CreateTemp(t.TempDir(), "")
	qt.Assert(t, qt.IsNil(err))
	defer f.Close()

	var table fdTable
	table.set(1, f)
	table.set(4, f)

	cmd := &exec.Cmd{}
	table.setup(cmd)
	qt.Assert(t, qt.IsNil(cmd.Stdin))
	qt.Assert(t, qt.Equals(cmd.Stdout, io.Writer(f)))
	qt.Assert(t, qt.IsNil(cmd.Stderr))
	qt.Assert(t, qt.HasLen(cmd.ExtraFiles, 2))
	qt.Assert(t, qt.IsNil(cmd.ExtraFiles[0]))
	qt.Assert(t, qt.Equals(cmd.ExtraFiles[1], f))
}
