// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package ast

import (
	"testing"

	"github.com/go-quicktest/qt"
)

func TestNodeString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		node Node
		want string
	}{
		{
			&Command{Name: &Lit{"echo"}, Args: []Expr{&Lit{"hello"}}},
			"echo hello",
		},
		{
			&Command{
				Name:      &Lit{"echo"},
				Args:      []Expr{&Var{"FOO"}, &Num{3}},
				Redirects: []*Redirect{NewRedirect(Write, &Lit{"out.txt"})},
			},
			"echo $FOO 3 1> out.txt",
		},
		{
			&Command{
				Name:       &Lit{"sleep"},
				Args:       []Expr{&Num{5}},
				Redirects:  []*Redirect{{Target: &Fd{2}, Source: &Fd{1}, Op: Write}},
				Background: true,
			},
			"sleep 5 2> &1 &",
		},
		{
			&Pipeline{Commands: []*Command{
				{Name: &Lit{"echo"}, Args: []Expr{&Lit{"hello"}}},
				{Name: &Lit{"cat"}, Args: []Expr{&Lit{"-b"}}},
			}},
			"echo hello | cat -b",
		},
		{
			&Sequence{Nodes: []Node{
				&Assign{Name: &Var{"VAR"}, Value: &Lit{"x"}},
				&Command{Name: &Lit{"echo"}, Args: []Expr{&Var{"VAR"}}},
			}},
			"VAR=x; echo $VAR",
		},
	}
	for _, test := range tests {
		qt.Check(t, qt.Equals(test.node.String(), test.want))
	}
}

func TestNewRedirect(t *testing.T) {
	t.Parallel()
	out := NewRedirect(Write, &Lit{"f"})
	qt.Assert(t, qt.DeepEquals(out.Target, Expr(&Fd{1})))
	in := NewRedirect(Read, &Lit{"f"})
	qt.Assert(t, qt.DeepEquals(in.Target, Expr(&Fd{0})))
}
