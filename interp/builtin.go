// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"mvdan.cc/fsh"
)

// builtinFunc runs a builtin with its resolved arguments. stdout is the
// command's descriptor 1 after pipeline wiring and redirections.
type builtinFunc func(s *State, args []string, stdout io.Writer) error

var builtins = map[string]builtinFunc{
	"cd":       builtinCd,
	"exit":     builtinExit,
	"abort":    builtinAbort,
	"printenv": builtinPrintenv,
}

// IsBuiltin returns true if the given word is a builtin command.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func builtinCd(s *State, args []string, _ io.Writer) error {
	path := "/"
	if len(args) > 0 {
		path = args[0]
	}
	return s.ChangeDir(path)
}

// ChangeDir sets the current directory. Relative paths are resolved from the
// current directory, and symlinks are resolved. The PWD variable is updated
// to match.
func (s *State) ChangeDir(path string) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fsh.FromOS(fsh.InvalidInput, "cd", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return fsh.FromOS(fsh.InvalidInput, "cd", err)
	}
	if !info.IsDir() {
		return fsh.New(fsh.InvalidInput, "cd", resolved+": not a directory")
	}
	if !canEnter(resolved) {
		return fsh.New(fsh.PermissionDenied, "cd", resolved)
	}
	s.dir = resolved
	s.vars.Insert("PWD", resolved)
	return nil
}

// exitCode parses the argument of exit. No argument means success, and an
// argument which is not a number means a usage error.
func exitCode(args []string) uint8 {
	if len(args) == 0 {
		return 0
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 2
	}
	return uint8(n)
}

func builtinExit(_ *State, args []string, _ io.Writer) error {
	return ExitStatus(exitCode(args))
}

func builtinAbort(s *State, _ []string, _ io.Writer) error {
	s.abort()
	return nil
}

func builtinPrintenv(s *State, args []string, stdout io.Writer) error {
	bw := bufio.NewWriter(stdout)
	if len(args) == 0 {
		s.vars.Each(func(name, value string) bool {
			fmt.Fprintf(bw, "%s=%s\n", name, value)
			return true
		})
	}
	for _, name := range args {
		if value, ok := s.vars.Get(name); ok {
			fmt.Fprintf(bw, "%s=%s\n", name, value)
		}
	}
	if err := bw.Flush(); err != nil {
		return fsh.FromOS(fsh.Failure, "printenv", err)
	}
	return nil
}
