// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package vars implements the shell variable store.
//
// Every variable is exported: the whole store becomes the environment of the
// processes started by the shell.
package vars

import (
	"bufio"
	"bytes"
	"os"
	"sort"
	"strings"

	"github.com/google/renameio/v2"

	"mvdan.cc/fsh"
)

// Store is a set of shell variables. The zero value is an empty store ready
// to use. It is not safe for concurrent use.
type Store struct {
	m map[string]string
}

// New returns a store holding the given "name=value" pairs. Pairs without a
// '=' are ignored, and for duplicate names the last one wins.
func New(pairs ...string) *Store {
	s := &Store{}
	s.Inherit(pairs)
	return s
}

// Inherit copies "name=value" pairs into the store, typically [os.Environ].
func (s *Store) Inherit(environ []string) *Store {
	for _, pair := range environ {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			continue
		}
		s.Insert(name, value)
	}
	return s
}

// Get returns the value of a variable, and whether it was set.
func (s *Store) Get(name string) (string, bool) {
	value, ok := s.m[name]
	return value, ok
}

// Insert sets a variable, replacing any previous value.
func (s *Store) Insert(name, value string) {
	if s.m == nil {
		s.m = make(map[string]string)
	}
	s.m[name] = value
}

// Remove unsets a variable.
func (s *Store) Remove(name string) { delete(s.m, name) }

// Exists reports whether a variable is set.
func (s *Store) Exists(name string) bool {
	_, ok := s.m[name]
	return ok
}

func (s *Store) Len() int { return len(s.m) }

// Clear unsets all variables.
func (s *Store) Clear() { clear(s.m) }

// Keys returns the variable names in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.m))
	for name := range s.m {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// Each calls fn for every variable in name order, stopping if fn returns false.
func (s *Store) Each(fn func(name, value string) bool) {
	for _, name := range s.Keys() {
		if !fn(name, s.m[name]) {
			return
		}
	}
}

// Environ returns a snapshot of the store as sorted "name=value" pairs,
// suitable for [os/exec.Cmd.Env].
func (s *Store) Environ() []string {
	list := make([]string, 0, len(s.m))
	s.Each(func(name, value string) bool {
		list = append(list, name+"="+value)
		return true
	})
	return list
}

// Load reads a variable file, made of "name=value" lines.
// Empty lines and lines without a '=' are skipped, and surrounding
// whitespace is trimmed from names and values.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fsh.FromOS(fsh.InvalidInput, "load variables", err)
	}
	s := &Store{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		name, value, ok := strings.Cut(sc.Text(), "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		s.Insert(name, strings.TrimSpace(value))
	}
	if err := sc.Err(); err != nil {
		return nil, fsh.Wrap(fsh.InvalidInput, "load variables", err)
	}
	return s, nil
}

// Save writes the store to a variable file which [Load] can read back.
// The file is replaced atomically.
func (s *Store) Save(path string) error {
	var buf bytes.Buffer
	s.Each(func(name, value string) bool {
		buf.WriteString(name)
		buf.WriteByte('=')
		buf.WriteString(value)
		buf.WriteByte('\n')
		return true
	})
	if err := renameio.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fsh.FromOS(fsh.Failure, "save variables", err)
	}
	return nil
}
