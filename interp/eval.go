// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"io"
	"os"

	"mvdan.cc/fsh"
	"mvdan.cc/fsh/ast"
	"mvdan.cc/fsh/expand"
)

// Eval evaluates a command tree, which can be an [*ast.Sequence],
// [*ast.Pipeline], [*ast.Command] or [*ast.Assign].
//
// Every process started by a pipeline or command is reaped before the next
// one starts, except for background jobs, which are only polled. The first
// failure stops the evaluation and is returned; the State remains usable for
// later calls. The exit builtin is reported as an [ExitStatus] error.
//
// The context is checked between the statements of a sequence.
func (s *State) Eval(ctx context.Context, node ast.Node) error {
	switch x := node.(type) {
	case *ast.Sequence:
		for _, n := range x.Nodes {
			if err := ctx.Err(); err != nil {
				return fsh.Wrap(fsh.Interrupted, "eval", err)
			}
			if err := s.Eval(ctx, n); err != nil {
				return err
			}
		}
		return nil
	case *ast.Pipeline:
		if len(x.Commands) == 0 {
			return invalidTree("eval pipeline")
		}
		return s.pipeline(x.Commands)
	case *ast.Command:
		return s.pipeline([]*ast.Command{x})
	case *ast.Assign:
		return s.assign(x)
	}
	return invalidTree("eval")
}

func (s *State) assign(as *ast.Assign) error {
	name, ok := as.Name.(*ast.Var)
	if !ok || name.Name == "" {
		return invalidTree("assign")
	}
	value, err := expand.Literal(s.vars, as.Value)
	if err != nil {
		return err
	}
	s.vars.Insert(name.Name, value)
	return nil
}

// pipeline runs commands left to right, connecting each one's standard
// output to the next one's standard input, and then waits for them.
//
// If a stage fails, the stages already started are killed and reaped.
func (s *State) pipeline(cmds []*ast.Command) error {
	if err := s.pipe.Open(); err != nil {
		return err
	}
	mark := s.handler.Len()
	var err error
	for i, cmd := range cmds {
		if err = s.stage(cmd, i == len(cmds)-1); err != nil {
			break
		}
	}
	if cerr := s.pipe.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.lastReaped = nil
		if started := s.handler.Len() - mark; started > 0 {
			s.logger.Debug("abort pipeline", "started", started, "err", err)
			reaped, derr := s.handler.Drain(mark)
			if derr != nil {
				s.logger.Warn("could not clean up pipeline", "err", derr)
			}
			s.lastReaped = reaped
		}
		return err
	}
	reaped, err := s.handler.Wait()
	s.lastReaped = reaped
	return err
}

// stage runs one command of a pipeline. Unless it is the last stage, its
// standard output is captured and sent into the pipe.
func (s *State) stage(cmd *ast.Command, last bool) (err error) {
	// Files the parent no longer needs once the stage has started.
	var closers []*os.File
	defer func() {
		for _, f := range closers {
			f.Close()
		}
	}()

	table := fdTable{s.stdin, s.stdout, s.stderr}
	if s.pipe.IsRecvable() {
		in, err := s.pipe.Recv()
		if err != nil {
			return err
		}
		s.logger.Debug("pipe recv")
		closers = append(closers, in)
		table[0] = in
	}

	name, err := expand.Name(s.vars, cmd)
	if err != nil {
		return err
	}
	args, err := expand.Args(s.vars, s.dir, cmd)
	if err != nil {
		return err
	}
	fn, isBuiltin := builtins[name]

	// capture is the parent's end of this stage's output, to be handed over
	// to the next stage. It is closed here unless the handover happens.
	var capture *os.File
	defer func() {
		if capture != nil {
			capture.Close()
		}
	}()
	if !last {
		if isBuiltin {
			// Builtins run to completion before the next stage starts, so
			// their output is buffered in an unlinked file.
			capture, err = os.CreateTemp("", "fsh-")
			if err != nil {
				return fsh.FromOS(fsh.EngineError, "pipe", err)
			}
			os.Remove(capture.Name())
			table[1] = capture
		} else {
			r, w, err := os.Pipe()
			if err != nil {
				return fsh.FromOS(fsh.EngineError, "pipe", err)
			}
			closers = append(closers, w)
			capture = r
			table[1] = w
		}
	}

	opened, err := s.redirect(&table, cmd.Redirects)
	closers = append(closers, opened...)
	if err != nil {
		return err
	}

	if isBuiltin {
		s.logger.Debug("builtin", "name", name, "args", args)
		var out io.Writer = io.Discard
		if w := table.writer(1); w != nil {
			out = w
		}
		if err := fn(s, args, out); err != nil {
			return err
		}
		if capture == nil {
			return nil
		}
		if _, err := capture.Seek(0, io.SeekStart); err != nil {
			return fsh.FromOS(fsh.EngineError, "pipe", err)
		}
		if err := s.pipe.Send(capture); err != nil {
			return err
		}
		s.logger.Debug("pipe send", "builtin", name)
		capture = nil
		return nil
	}

	child, err := s.spawn(name, args, table)
	if err != nil {
		return err
	}
	child.stdout, capture = capture, nil
	pid := s.handler.Push(child, cmd.Background)
	if c, ok := s.handler.Get(pid); ok {
		if out := c.TakeStdout(); out != nil {
			if err := s.pipe.Send(out); err != nil {
				out.Close()
				return err
			}
			s.logger.Debug("pipe send", "pid", pid)
		}
	}
	return nil
}
