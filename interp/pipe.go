// Copyright (c) 2024, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"os"

	"mvdan.cc/fsh"
)

// pipeState is one of pipeClosed, pipeSendable or pipeRecvable.
type pipeState interface{ pipeState() }

type (
	pipeClosed   struct{}
	pipeSendable struct{}
	pipeRecvable struct{ f *os.File }
)

func (pipeClosed) pipeState()   {}
func (pipeSendable) pipeState() {}
func (pipeRecvable) pipeState() {}

// Pipe hands the standard output of one pipeline stage over to the standard
// input of the next. It holds at most one pending file, and sends and
// receives must strictly alternate while the pipe is open.
//
// The zero value is a closed pipe.
type Pipe struct {
	state pipeState
}

func brokenPipe(op, msg string) error { return fsh.New(fsh.BrokenPipe, op, msg) }

func (p *Pipe) current() pipeState {
	if p.state == nil {
		return pipeClosed{}
	}
	return p.state
}

// Open starts a new pipeline. The pipe must be closed.
func (p *Pipe) Open() error {
	if _, ok := p.current().(pipeClosed); !ok {
		return brokenPipe("pipe open", "pipe is already open")
	}
	p.state = pipeSendable{}
	return nil
}

// Send stores f as the pending file for the next stage. The pipe takes
// ownership of f only if Send succeeds.
func (p *Pipe) Send(f *os.File) error {
	switch p.current().(type) {
	case pipeClosed:
		return brokenPipe("pipe send", "pipe is closed")
	case pipeRecvable:
		return brokenPipe("pipe send", "a file is already pending")
	}
	if f == nil {
		return fsh.New(fsh.InvalidInput, "pipe send", "nil file")
	}
	p.state = pipeRecvable{f: f}
	return nil
}

// Recv returns the pending file, handing its ownership to the caller.
func (p *Pipe) Recv() (*os.File, error) {
	st, ok := p.current().(pipeRecvable)
	if !ok {
		return nil, brokenPipe("pipe recv", "no file is pending")
	}
	p.state = pipeSendable{}
	return st.f, nil
}

// IsSendable reports whether the pipe is open with no pending file.
func (p *Pipe) IsSendable() bool {
	_, ok := p.current().(pipeSendable)
	return ok
}

// IsRecvable reports whether a file is pending.
func (p *Pipe) IsRecvable() bool {
	_, ok := p.current().(pipeRecvable)
	return ok
}

// IsClosed reports whether no pipeline is in progress.
func (p *Pipe) IsClosed() bool {
	_, ok := p.current().(pipeClosed)
	return ok
}

// Close ends the pipeline, closing the pending file if there is one.
// The pipe is closed even if closing the file fails.
func (p *Pipe) Close() error {
	st, ok := p.current().(pipeRecvable)
	p.state = pipeClosed{}
	if ok {
		if err := st.f.Close(); err != nil {
			return fsh.Wrap(fsh.BrokenPipe, "pipe close", err)
		}
	}
	return nil
}

// Quit closes the pipe like [Pipe.Close], ignoring any error.
func (p *Pipe) Quit() {
	_ = p.Close()
}
