// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"mvdan.cc/fsh"
	"mvdan.cc/fsh/expand"
)

// executable returns the absolute path of a runnable file, resolving a
// relative path from dir.
func executable(dir, path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "", err
	case info.IsDir():
		return "", fmt.Errorf("%s: is a directory", path)
	case runtime.GOOS != "windows" && info.Mode()&0o111 == 0:
		return "", fs.ErrPermission
	}
	return path, nil
}

// candidates lists the file names tried for a program. On Windows a name
// without an extension is tried with each one in PATHEXT.
func candidates(env expand.Environ, name string) []string {
	if runtime.GOOS != "windows" || filepath.Ext(name) != "" {
		return []string{name}
	}
	pathext, _ := env.Get("PATHEXT")
	if pathext == "" {
		pathext = ".com;.exe;.bat;.cmd"
	}
	var names []string
	for _, ext := range strings.Split(strings.ToLower(pathext), ";") {
		if ext == "" {
			continue
		}
		if ext[0] != '.' {
			ext = "." + ext
		}
		names = append(names, name+ext)
	}
	return names
}

// find tries every candidate for name, returning the first error if none
// can be run.
func find(cwd string, env expand.Environ, name string) (string, error) {
	var first error
	for _, cand := range candidates(env, name) {
		path, err := executable(cwd, cand)
		if err == nil {
			return path, nil
		}
		if first == nil {
			first = err
		}
	}
	return "", first
}

// LookPathDir is similar to [os/exec.LookPath], with the difference that it
// uses the provided environment, and relative paths are resolved from cwd
// instead of the process's current directory.
//
// Names containing a path separator are never searched for in PATH, and an
// empty PATH only searches cwd. If no executable is found, the error wraps
// [fs.ErrNotExist].
func LookPathDir(cwd string, env expand.Environ, file string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("empty program name: %w", fs.ErrNotExist)
	}
	seps := "/"
	if runtime.GOOS == "windows" {
		seps = `:\/`
	}
	if strings.ContainsAny(file, seps) {
		path, err := find(cwd, env, file)
		if err != nil {
			return "", fmt.Errorf("%q: %w", file, err)
		}
		return path, nil
	}
	list, _ := env.Get("PATH")
	for _, dir := range filepath.SplitList(list) {
		if path, err := find(cwd, env, filepath.Join(dir, file)); err == nil {
			return path, nil
		}
	}
	if list == "" {
		if path, err := find(cwd, env, file); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%q: executable file not found in $PATH: %w", file, fs.ErrNotExist)
}

// spawnError classifies a failure to start a program. Anything other than a
// missing file is an engine error.
func spawnError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fsh.Wrap(fsh.NotFound, "spawn", err)
	}
	return fsh.Wrap(fsh.EngineError, "spawn", err)
}

// spawn starts an external program with the given descriptors. The child
// runs in the current directory with a snapshot of the shell variables as
// its environment.
func (s *State) spawn(name string, args []string, table fdTable) (*Child, error) {
	path, err := LookPathDir(s.dir, s.vars, name)
	if err != nil {
		return nil, spawnError(err)
	}
	cmd := &exec.Cmd{
		Path: path,
		Args: append([]string{name}, args...),
		Env:  s.vars.Environ(),
		Dir:  s.childDir(),
	}
	table.setup(cmd)
	if err := cmd.Start(); err != nil {
		return nil, spawnError(err)
	}
	s.logger.Debug("spawn", "pid", cmd.Process.Pid, "path", path, "argv", cmd.Args)
	return &Child{Pid: cmd.Process.Pid, Args: cmd.Args, cmd: cmd}, nil
}

// childDir is the directory children start in. It falls back to the root
// directory if the current one is no longer usable.
func (s *State) childDir() string {
	if info, err := os.Stat(s.dir); err == nil && info.IsDir() {
		return s.dir
	}
	return "/"
}
