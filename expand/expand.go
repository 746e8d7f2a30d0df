// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package expand resolves command tree expressions into the strings that
// make up a program's arguments.
package expand

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"mvdan.cc/sh/v3/pattern"

	"mvdan.cc/fsh"
	"mvdan.cc/fsh/ast"
)

// Environ is the set of variables expressions are resolved against.
// It is implemented by [mvdan.cc/fsh/vars.Store].
type Environ interface {
	Get(name string) (string, bool)
}

func invalidTree(op string) error {
	return fsh.New(fsh.EngineError, op, "invalid abstract syntax tree")
}

// Literal resolves a single expression without globbing. A variable that is
// not set resolves to the empty string. File descriptor literals are an
// [fsh.EngineError].
func Literal(env Environ, expr ast.Expr) (string, error) {
	switch x := expr.(type) {
	case *ast.Lit:
		return x.Value, nil
	case *ast.Var:
		if env == nil {
			return "", nil
		}
		value, _ := env.Get(x.Name)
		return value, nil
	case *ast.Num:
		return strconv.FormatUint(x.Value, 10), nil
	}
	return "", invalidTree("resolve expression")
}

// Name resolves the program name of a command. Names are never globbed.
func Name(env Environ, cmd *ast.Command) (string, error) {
	if cmd.Name == nil {
		return "", invalidTree("resolve command name")
	}
	name, err := Literal(env, cmd.Name)
	if err != nil {
		return "", invalidTree("resolve command name")
	}
	return name, nil
}

// Args resolves the arguments of a command. Literals containing glob
// metacharacters expand to their sorted matches, relative to dir; each match
// becomes a separate argument.
func Args(env Environ, dir string, cmd *ast.Command) ([]string, error) {
	args := make([]string, 0, len(cmd.Args))
	for _, arg := range cmd.Args {
		if lit, ok := arg.(*ast.Lit); ok {
			args = append(args, Glob(dir, lit.Value)...)
			continue
		}
		s, err := Literal(env, arg)
		if err != nil {
			return nil, invalidTree("resolve command args")
		}
		args = append(args, s)
	}
	return args, nil
}

// globQuoter escapes the metacharacters of doublestar patterns, braces
// included, so that a directory name is matched literally.
var globQuoter = strings.NewReplacer("*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`, "{", `\{`, "}", `\}`)

// Glob expands pat against the filesystem. Relative patterns are matched
// from dir, and their matches are returned relative to dir as well.
//
// If pat has no metacharacters, is not a valid pattern, or matches nothing,
// the result is pat itself.
func Glob(dir, pat string) []string {
	if pat == "" || !pattern.HasMeta(pat, 0) {
		return []string{pat}
	}
	rel := !filepath.IsAbs(pat) && dir != ""
	full := pat
	if rel {
		full = filepath.Join(globQuoter.Replace(dir), pat)
	}
	matches, err := doublestar.FilepathGlob(full)
	if err != nil || len(matches) == 0 {
		return []string{pat}
	}
	if rel {
		for i, match := range matches {
			if r, err := filepath.Rel(dir, match); err == nil {
				matches[i] = r
			}
		}
	}
	sort.Strings(matches)
	return matches
}
