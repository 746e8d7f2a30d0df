// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"mvdan.cc/fsh"
	"mvdan.cc/fsh/ast"
	"mvdan.cc/fsh/expand"
)

// fdTable maps the descriptors of a command to the files they refer to.
// Entry n becomes descriptor n of a spawned child; a nil entry is left closed.
//
// os/exec performs the equivalent of one dup2 per entry in the child, after
// fork and before exec, so a table is the whole of a command's descriptor
// setup.
type fdTable []*os.File

func (t fdTable) get(n int) *os.File {
	if n < 0 || n >= len(t) {
		return nil
	}
	return t[n]
}

func (t *fdTable) set(n int, f *os.File) {
	for len(*t) <= n {
		*t = append(*t, nil)
	}
	(*t)[n] = f
}

// reader and writer avoid storing a typed nil in an interface.
func (t fdTable) reader(n int) io.Reader {
	if f := t.get(n); f != nil {
		return f
	}
	return nil
}

func (t fdTable) writer(n int) io.Writer {
	if f := t.get(n); f != nil {
		return f
	}
	return nil
}

// setup wires the table into cmd.
func (t fdTable) setup(cmd *exec.Cmd) {
	cmd.Stdin = t.reader(0)
	cmd.Stdout = t.writer(1)
	cmd.Stderr = t.writer(2)
	if len(t) > 3 {
		cmd.ExtraFiles = append([]*os.File(nil), t[3:]...)
	}
}

// redirect applies redirections to the table in order, so that later ones
// and all of them over the pipeline's wiring win for the same descriptor.
//
// Files opened for the redirections are returned so that the caller can close
// them once the command has started, even when an error is returned.
func (s *State) redirect(table *fdTable, rds []*ast.Redirect) (opened []*os.File, err error) {
	for _, rd := range rds {
		target, ok := rd.Target.(*ast.Fd)
		if !ok {
			return opened, invalidTree("redirect")
		}
		if target.N < 0 {
			return opened, fsh.New(fsh.InvalidInput, "redirect", fmt.Sprintf("bad file descriptor: %d", target.N))
		}
		var f *os.File
		switch src := rd.Source.(type) {
		case *ast.Fd:
			if f = table.get(src.N); f == nil {
				return opened, fsh.New(fsh.InvalidInput, "redirect", fmt.Sprintf("bad file descriptor: %d", src.N))
			}
		default:
			name, err := expand.Literal(s.vars, rd.Source)
			if err != nil {
				return opened, err
			}
			if f, err = s.openRedirect(name); err != nil {
				return opened, err
			}
			opened = append(opened, f)
		}
		s.logger.Debug("redirect", "fd", target.N, "op", rd.Op, "source", f.Name())
		table.set(target.N, f)
	}
	return opened, nil
}

// openRedirect opens a redirection file relative to the current directory.
// Both directions open the file for reading and writing, creating it if
// needed, and never truncate it.
func (s *State) openRedirect(name string) (*os.File, error) {
	if name == "" {
		return nil, fsh.New(fsh.InvalidInput, "redirect", "empty file name")
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fsh.FromOS(fsh.InvalidInput, "redirect", err)
	}
	return f, nil
}
