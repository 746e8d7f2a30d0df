// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package parser turns shell source into the command tree of package ast.
//
// The source is parsed as POSIX shell by [mvdan.cc/sh/v3/syntax], and the
// resulting syntax tree is then lowered into the much smaller language the
// evaluator understands: sequences, pipelines, simple commands, assignments,
// redirections and background jobs. Anything else is rejected with an
// [fsh.InvalidInput] error.
package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"mvdan.cc/fsh"
	"mvdan.cc/fsh/ast"
)

// Parse reads and parses a program with an optional name, returning its
// command tree.
//
// A single statement is returned as is; more than one is wrapped in an
// [*ast.Sequence].
func Parse(r io.Reader, name string) (ast.Node, error) {
	f, err := syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(r, name)
	if err != nil {
		return nil, fsh.Wrap(fsh.InvalidInput, "parse", err)
	}
	nodes := make([]ast.Node, 0, len(f.Stmts))
	for _, stmt := range f.Stmts {
		node, err := lowerStmt(stmt)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return &ast.Sequence{Nodes: nodes}, nil
}

// ParseString is a shorthand for [Parse] on a string.
func ParseString(src string) (ast.Node, error) {
	return Parse(strings.NewReader(src), "")
}

func unsupported(node syntax.Node, what string) error {
	return fsh.New(fsh.InvalidInput, "parse", fmt.Sprintf("%s: %s are not supported", node.Pos(), what))
}

func lowerStmt(stmt *syntax.Stmt) (ast.Node, error) {
	switch {
	case stmt.Negated:
		return nil, unsupported(stmt, "negated statements")
	case stmt.Coprocess:
		return nil, unsupported(stmt, "coprocesses")
	}
	if call, ok := stmt.Cmd.(*syntax.CallExpr); ok && len(call.Args) == 0 {
		if len(stmt.Redirs) > 0 || stmt.Background {
			return nil, unsupported(stmt, "redirected or background assignments")
		}
		return lowerAssigns(call.Assigns)
	}
	var cmds []*ast.Command
	if err := flattenPipe(stmt, &cmds); err != nil {
		return nil, err
	}
	if stmt.Background {
		for _, cmd := range cmds {
			cmd.Background = true
		}
	}
	if len(cmds) == 1 {
		return cmds[0], nil
	}
	return &ast.Pipeline{Commands: cmds}, nil
}

// flattenPipe appends the commands of a left-leaning tree of "|" operators to
// cmds, in execution order.
func flattenPipe(stmt *syntax.Stmt, cmds *[]*ast.Command) error {
	switch x := stmt.Cmd.(type) {
	case *syntax.BinaryCmd:
		if x.Op != syntax.Pipe {
			return unsupported(x, fmt.Sprintf("%q operators", x.Op))
		}
		if len(stmt.Redirs) > 0 {
			return unsupported(stmt, "redirected pipelines")
		}
		if x.X.Background || x.Y.Background || x.X.Negated || x.Y.Negated {
			return unsupported(x, "pipeline stages with modifiers")
		}
		if err := flattenPipe(x.X, cmds); err != nil {
			return err
		}
		return flattenPipe(x.Y, cmds)
	case *syntax.CallExpr:
		cmd, err := lowerCall(x, stmt.Redirs)
		if err != nil {
			return err
		}
		*cmds = append(*cmds, cmd)
		return nil
	case nil:
		return unsupported(stmt, "empty commands")
	default:
		return unsupported(x, "compound commands")
	}
}

func lowerCall(call *syntax.CallExpr, redirs []*syntax.Redirect) (*ast.Command, error) {
	if len(call.Assigns) > 0 {
		return nil, unsupported(call, "per-command assignments")
	}
	name, err := lowerWord(call.Args[0])
	if err != nil {
		return nil, err
	}
	cmd := &ast.Command{Name: name}
	for _, word := range call.Args[1:] {
		arg, err := lowerWord(word)
		if err != nil {
			return nil, err
		}
		cmd.Args = append(cmd.Args, arg)
	}
	for _, rd := range redirs {
		redir, err := lowerRedirect(rd)
		if err != nil {
			return nil, err
		}
		cmd.Redirects = append(cmd.Redirects, redir)
	}
	return cmd, nil
}

func lowerAssigns(assigns []*syntax.Assign) (ast.Node, error) {
	nodes := make([]ast.Node, 0, len(assigns))
	for _, as := range assigns {
		if as.Append || as.Naked || as.Index != nil || as.Array != nil {
			return nil, unsupported(as, "array or append assignments")
		}
		var value ast.Expr = &ast.Lit{}
		if as.Value != nil {
			v, err := lowerWord(as.Value)
			if err != nil {
				return nil, err
			}
			value = v
		}
		nodes = append(nodes, &ast.Assign{Name: &ast.Var{Name: as.Name.Value}, Value: value})
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return &ast.Sequence{Nodes: nodes}, nil
}

func lowerRedirect(rd *syntax.Redirect) (*ast.Redirect, error) {
	var op ast.RedirOp
	dup := false
	switch rd.Op {
	case syntax.RdrOut:
		op = ast.Write
	case syntax.RdrIn:
		op = ast.Read
	case syntax.DplOut:
		op, dup = ast.Write, true
	case syntax.DplIn:
		op, dup = ast.Read, true
	default:
		return nil, unsupported(rd, fmt.Sprintf("%q redirections", rd.Op))
	}
	redir := &ast.Redirect{Target: &ast.Fd{N: op.DefaultFd()}, Op: op}
	if rd.N != nil {
		n, err := strconv.Atoi(rd.N.Value)
		if err != nil {
			return nil, unsupported(rd, "named descriptors")
		}
		redir.Target = &ast.Fd{N: n}
	}
	if dup {
		n, err := strconv.Atoi(rd.Word.Lit())
		if err != nil || n < 0 {
			return nil, unsupported(rd, "non-numeric descriptor duplications")
		}
		redir.Source = &ast.Fd{N: n}
		return redir, nil
	}
	source, err := lowerWord(rd.Word)
	if err != nil {
		return nil, err
	}
	// "> 3" names a file called 3, which is a plain string to the resolver.
	if num, ok := source.(*ast.Num); ok {
		source = &ast.Lit{Value: num.String()}
	}
	redir.Source = source
	return redir, nil
}

// lowerWord converts a word into a single expression. Words made up only of
// literal and quoted parts become an [*ast.Lit], or an [*ast.Num] when they
// are a plain decimal number. A word that is exactly one parameter expansion
// becomes an [*ast.Var].
func lowerWord(word *syntax.Word) (ast.Expr, error) {
	if len(word.Parts) == 1 {
		if v, ok := simpleParam(word.Parts[0]); ok {
			return v, nil
		}
		if dq, ok := word.Parts[0].(*syntax.DblQuoted); ok && len(dq.Parts) == 1 {
			if v, ok := simpleParam(dq.Parts[0]); ok {
				return v, nil
			}
		}
	}
	var sb strings.Builder
	if err := literalParts(&sb, word.Parts, false); err != nil {
		return nil, err
	}
	s := sb.String()
	if n, err := strconv.ParseUint(s, 10, 64); err == nil && strconv.FormatUint(n, 10) == s {
		return &ast.Num{Value: n}, nil
	}
	return &ast.Lit{Value: s}, nil
}

// literalParts writes the value of a word's parts with quotes removed.
// Outside quotes a backslash escapes any character; inside double quotes it
// only escapes '$', '`', '"' and another backslash.
func literalParts(sb *strings.Builder, parts []syntax.WordPart, quoted bool) error {
	for _, part := range parts {
		switch x := part.(type) {
		case *syntax.Lit:
			unescape(sb, x.Value, quoted)
		case *syntax.SglQuoted:
			if x.Dollar {
				return unsupported(x, "$'' strings")
			}
			sb.WriteString(x.Value)
		case *syntax.DblQuoted:
			if x.Dollar {
				return unsupported(x, `$"" strings`)
			}
			if err := literalParts(sb, x.Parts, true); err != nil {
				return err
			}
		case *syntax.ParamExp:
			return unsupported(x, "variables within larger words")
		default:
			return unsupported(x, "expansions other than variables")
		}
	}
	return nil
}

func unescape(sb *strings.Builder, s string, quoted bool) {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '\\' && i+1 < len(s) {
			switch next := s[i+1]; {
			case !quoted, next == '\\', next == '$', next == '`', next == '"':
				i++
				b = next
			}
		}
		sb.WriteByte(b)
	}
}

func simpleParam(part syntax.WordPart) (*ast.Var, bool) {
	pe, ok := part.(*syntax.ParamExp)
	if !ok || pe.Param == nil {
		return nil, false
	}
	if pe.Excl || pe.Length || pe.Width || pe.Index != nil ||
		pe.Slice != nil || pe.Repl != nil || pe.Exp != nil {
		return nil, false
	}
	return &ast.Var{Name: pe.Param.Value}, true
}
