// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"

	"mvdan.cc/fsh"
	"mvdan.cc/fsh/ast"
	"mvdan.cc/fsh/expand"
	"mvdan.cc/fsh/vars"
)

func globDir(t *testing.T) string {
	dir := t.TempDir()
	for _, name := range []string{"b.go", "a.go", "c.txt", "sub/d.go"} {
		path := filepath.Join(dir, name)
		qt.Assert(t, qt.IsNil(os.MkdirAll(filepath.Dir(path), 0o777)))
		qt.Assert(t, qt.IsNil(os.WriteFile(path, nil, 0o666)))
	}
	return dir
}

func TestArgs(t *testing.T) {
	t.Parallel()
	dir := globDir(t)
	env := vars.New("FOO=bar", "STAR=*.go")

	tests := []struct {
		args []ast.Expr
		want []string
	}{
		{[]ast.Expr{&ast.Lit{Value: "hello"}}, []string{"hello"}},
		{[]ast.Expr{&ast.Var{Name: "FOO"}}, []string{"bar"}},
		{[]ast.Expr{&ast.Var{Name: "MISSING"}}, []string{""}},
		{[]ast.Expr{&ast.Num{Value: 42}}, []string{"42"}},
		{[]ast.Expr{&ast.Lit{Value: "*.go"}}, []string{"a.go", "b.go"}},
		{[]ast.Expr{&ast.Lit{Value: "**/*.go"}}, []string{"a.go", "b.go", "sub/d.go"}},
		{[]ast.Expr{&ast.Lit{Value: "*.none"}}, []string{"*.none"}},
		{[]ast.Expr{&ast.Lit{Value: ""}}, []string{""}},
		// variables are not globbed
		{[]ast.Expr{&ast.Var{Name: "STAR"}}, []string{"*.go"}},
		{
			[]ast.Expr{&ast.Lit{Value: "-n"}, &ast.Lit{Value: "?.txt"}, &ast.Var{Name: "FOO"}},
			[]string{"-n", "c.txt", "bar"},
		},
	}
	for _, test := range tests {
		cmd := &ast.Command{Name: &ast.Lit{Value: "echo"}, Args: test.args}
		got, err := expand.Args(env, dir, cmd)
		qt.Assert(t, qt.IsNil(err))
		qt.Check(t, qt.DeepEquals(got, test.want), qt.Commentf("%s", cmd))
	}
}

func TestArgsFdLiteral(t *testing.T) {
	t.Parallel()
	cmd := &ast.Command{Name: &ast.Lit{Value: "echo"}, Args: []ast.Expr{&ast.Fd{N: 1}}}
	_, err := expand.Args(vars.New(), "", cmd)
	qt.Assert(t, qt.ErrorIs(err, fsh.EngineError))
	qt.Assert(t, qt.ErrorMatches(err, `.*invalid abstract syntax tree`))
}

func TestName(t *testing.T) {
	t.Parallel()
	dir := globDir(t)
	env := vars.New("PROG=cat")
	tests := []struct {
		name ast.Expr
		want string
	}{
		{&ast.Lit{Value: "echo"}, "echo"},
		{&ast.Lit{Value: "*.go"}, "*.go"},
		{&ast.Var{Name: "PROG"}, "cat"},
		{&ast.Var{Name: "NOPE"}, ""},
		{&ast.Num{Value: 7}, "7"},
	}
	for _, test := range tests {
		_ = dir
		got, err := expand.Name(env, &ast.Command{Name: test.name})
		qt.Assert(t, qt.IsNil(err))
		qt.Check(t, qt.Equals(got, test.want))
	}

	_, err := expand.Name(env, &ast.Command{Name: &ast.Fd{N: 2}})
	qt.Assert(t, qt.ErrorIs(err, fsh.EngineError))
	_, err = expand.Name(env, &ast.Command{})
	qt.Assert(t, qt.ErrorIs(err, fsh.EngineError))
}

func TestGlobAbsolute(t *testing.T) {
	t.Parallel()
	dir := globDir(t)
	got := expand.Glob("/nonexistent", filepath.Join(dir, "*.go"))
	qt.Assert(t, qt.DeepEquals(got, []string{
		filepath.Join(dir, "a.go"),
		filepath.Join(dir, "b.go"),
	}))
}

// The session directory is matched literally, even when its name looks like
// a pattern.
func TestGlobMetaDir(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"a{b", "a,b}", "a[b", "a*b", "a?b", "{a,b}"} {
		dir := filepath.Join(t.TempDir(), name)
		qt.Assert(t, qt.IsNil(os.Mkdir(dir, 0o777)))
		qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(dir, "x.txt"), nil, 0o666)))
		qt.Assert(t, qt.IsNil(os.WriteFile(filepath.Join(dir, "y.go"), nil, 0o666)))

		got := expand.Glob(dir, "*.txt")
		qt.Check(t, qt.DeepEquals(got, []string{"x.txt"}), qt.Commentf("%q", name))
	}
}
