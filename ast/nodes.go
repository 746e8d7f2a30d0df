// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package ast defines the command tree evaluated by package interp.
//
// A tree is built once by a parser and then only read. Expressions are left
// unresolved; variables and globs are expanded at evaluation time, so that an
// assignment earlier in the same sequence is visible to later commands.
package ast

import (
	"strconv"
	"strings"
)

// Node is a command tree node. It is one of *Sequence, *Pipeline, *Command or
// *Assign; the last two are statements.
type Node interface {
	String() string
	nodeNode()
}

func (*Sequence) nodeNode() {}
func (*Pipeline) nodeNode() {}
func (*Command) nodeNode()  {}
func (*Assign) nodeNode()   {}

// Sequence is a list of nodes evaluated in order, such as "a; b; c".
type Sequence struct {
	Nodes []Node
}

// Pipeline is a list of commands whose standard output feeds the standard
// input of the next one, such as "a | b | c".
type Pipeline struct {
	Commands []*Command
}

// Command is a simple command: a program name, its arguments and its
// redirections.
type Command struct {
	Name      Expr
	Args      []Expr
	Redirects []*Redirect
	// Background is set for commands followed by "&".
	Background bool
}

// Assign is a variable assignment statement, such as "foo=bar".
type Assign struct {
	// Name must be a *Var.
	Name  Expr
	Value Expr
}

// Expr is an unresolved value. It is one of *Lit, *Var, *Num or *Fd.
type Expr interface {
	String() string
	exprNode()
}

func (*Lit) exprNode() {}
func (*Var) exprNode() {}
func (*Num) exprNode() {}
func (*Fd) exprNode()  {}

// Lit is a string literal. It may be a glob pattern.
type Lit struct {
	Value string
}

// Var is a variable reference, such as "$foo".
type Var struct {
	Name string
}

// Num is a numeric literal.
type Num struct {
	Value uint64
}

// Fd is a file descriptor literal. It is only valid in redirections.
type Fd struct {
	N int
}

// RedirOp is the direction of a redirection.
type RedirOp uint8

const (
	Write RedirOp = iota + 1 // >
	Read                     // <
)

func (o RedirOp) String() string {
	switch o {
	case Write:
		return ">"
	case Read:
		return "<"
	}
	return "RedirOp(" + strconv.Itoa(int(o)) + ")"
}

// Redirect remaps the descriptor Target of a command to Source.
type Redirect struct {
	// Target must be an *Fd.
	Target Expr
	// Source is a file name, or an *Fd to duplicate.
	Source Expr
	Op     RedirOp
}

// DefaultFd returns the descriptor implied by an abbreviated redirection
// such as "> file" or "< file".
func (o RedirOp) DefaultFd() int {
	if o == Read {
		return 0
	}
	return 1
}

// NewRedirect returns a redirection with the target descriptor implied by op.
func NewRedirect(op RedirOp, source Expr) *Redirect {
	return &Redirect{Target: &Fd{N: op.DefaultFd()}, Source: source, Op: op}
}

func (l *Lit) String() string { return l.Value }
func (v *Var) String() string { return "$" + v.Name }
func (n *Num) String() string { return strconv.FormatUint(n.Value, 10) }
func (f *Fd) String() string  { return "&" + strconv.Itoa(f.N) }

func (r *Redirect) String() string {
	var b strings.Builder
	if fd, ok := r.Target.(*Fd); ok {
		b.WriteString(strconv.Itoa(fd.N))
	} else if r.Target != nil {
		b.WriteString(r.Target.String())
	}
	b.WriteString(r.Op.String())
	b.WriteByte(' ')
	if r.Source != nil {
		b.WriteString(r.Source.String())
	}
	return b.String()
}

func (c *Command) String() string {
	var b strings.Builder
	if c.Name != nil {
		b.WriteString(c.Name.String())
	}
	for _, arg := range c.Args {
		b.WriteByte(' ')
		b.WriteString(arg.String())
	}
	for _, rd := range c.Redirects {
		b.WriteByte(' ')
		b.WriteString(rd.String())
	}
	if c.Background {
		b.WriteString(" &")
	}
	return b.String()
}

func (a *Assign) String() string {
	name, value := "", ""
	if v, ok := a.Name.(*Var); ok {
		name = v.Name
	} else if a.Name != nil {
		name = a.Name.String()
	}
	if a.Value != nil {
		value = a.Value.String()
	}
	return name + "=" + value
}

func (p *Pipeline) String() string {
	strs := make([]string, len(p.Commands))
	for i, c := range p.Commands {
		strs[i] = c.String()
	}
	return strings.Join(strs, " | ")
}

func (s *Sequence) String() string {
	strs := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		strs[i] = n.String()
	}
	return strings.Join(strs, "; ")
}
