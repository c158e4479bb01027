// Copyright (c) 2016-2017 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package pipe implements the cooperative forwarding loop of spec §4.E:
// coupling a readable half to a writable half, propagating data/close/
// abort/cancel across the boundary, and keeping per-operation completion
// linked end to end.
package pipe

import (
	"context"
	"fmt"

	"github.com/flowmux/opstream"
)

// AbortedError is returned by PipeOperationStreams when the pipe
// terminated because the upstream readable side was aborted.
type AbortedError struct{ Reason interface{} }

func (e *AbortedError) Error() string {
	return fmt.Sprintf("pipe: upstream aborted: %v", e.Reason)
}

// CancelledError is returned by PipeOperationStreams when the pipe
// terminated because the downstream writable side was cancelled.
type CancelledError struct{ Reason interface{} }

func (e *CancelledError) Error() string {
	return fmt.Sprintf("pipe: downstream cancelled: %v", e.Reason)
}

// link is the engine's record of one in-flight (upstream op, downstream
// status) pair, per spec §9's "small book" note.
type link struct {
	op   *opstream.Operation
	down *opstream.Status
}

// engine is the cooperative loop's private state. It runs on a single
// goroutine (PipeOperationStreams's caller), matching the teacher's
// single-goroutine-per-loop convention (session.go's recvLoop/sendLoop/
// shaperLoop) — the pending map below is therefore touched only by that
// one goroutine and needs no lock of its own.
type engine struct {
	src *opstream.Readable
	dst *opstream.Writable

	pending map[*opstream.Status]*opstream.Operation

	completions chan link
	done        chan struct{}

	lastWindow  int
	windowKnown bool
}

// PipeOperationStreams couples src to dst until one side terminates,
// exactly as spec §4.E describes: it forwards data/close/abort from src to
// dst, couples dst's cancellation back onto src, and links every
// forwarded data operation's downstream completion back onto its upstream
// status. It blocks until termination; run it in its own goroutine to get
// the "cooperative loop" scheduling the spec describes. After forwarding a
// close it keeps running until every forwarded data operation's downstream
// status has resolved (or ctx is cancelled), so those outcomes still reach
// the upstream statuses.
//
// The returned error is nil on a clean close, *AbortedError /
// *CancelledError describing which side initiated termination otherwise,
// or ctx.Err() if ctx is cancelled first.
func PipeOperationStreams(ctx context.Context, src *opstream.Readable, dst *opstream.Writable) error {
	e := &engine{
		src:         src,
		dst:         dst,
		pending:     make(map[*opstream.Status]*opstream.Operation),
		completions: make(chan link),
		done:        make(chan struct{}),
	}
	defer close(e.done)

	for {
		terminated, err, progressed := e.step()
		if terminated {
			// A clean close leaves forwarded data operations linked until
			// their downstream statuses resolve.
			for err == nil && len(e.pending) > 0 {
				select {
				case <-ctx.Done():
					err = ctx.Err()
					e.drainPending(err)
				case l := <-e.completions:
					e.resolve(l)
				}
			}
			return err
		}
		if progressed {
			continue
		}

		select {
		case <-ctx.Done():
			e.drainPending(ctx.Err())
			return ctx.Err()
		case l := <-e.completions:
			e.resolve(l)
		case <-src.Ready():
		case <-dst.Ready():
		case <-dst.Cancelled():
		}
	}
}

// step performs one pass of spec §4.E's four forwarding rules. progressed
// is true when rule 1 forwarded a data operation (the caller should call
// step again without blocking); terminated is true once the pipe has run
// its course, in which case err is the reason (nil for a clean close).
func (e *engine) step() (terminated bool, err error, progressed bool) {
	e.propagateWindow()

	switch e.src.State() {
	case opstream.ReadableReadable:
		op, rerr := e.src.Read()
		if rerr != nil {
			// src claimed readable but Read failed: nothing sane to do
			// but surface it as termination.
			e.drainPending(rerr)
			return true, rerr, false
		}
		return e.forward(op)
	}

	if e.dst.State() == opstream.WritableCancelled {
		reason, _ := e.dst.CancelOperation()
		_ = e.src.Cancel(reason)
		cerr := &CancelledError{Reason: reason}
		e.drainPending(cerr)
		return true, cerr, false
	}

	if e.src.State() == opstream.ReadableAborted {
		abortOp, _ := e.src.AbortOperation()
		var reason interface{}
		if abortOp != nil {
			reason = abortOp.Argument
		}
		_ = e.dst.Abort(reason)
		aerr := &AbortedError{Reason: reason}
		e.drainPending(aerr)
		return true, aerr, false
	}

	return false, nil, false
}

// forward implements rule 1's three op-type branches.
func (e *engine) forward(op *opstream.Operation) (terminated bool, err error, progressed bool) {
	switch op.Type {
	case opstream.OpClose:
		_ = e.dst.Close()
		_ = op.Complete(nil)
		return true, nil, false

	case opstream.OpAbort:
		_ = e.dst.Abort(op.Argument)
		aerr := &AbortedError{Reason: op.Argument}
		e.drainPending(aerr)
		return true, aerr, false

	default: // opstream.OpData
		dstState := e.dst.State()
		if dstState != opstream.WritableWritable && dstState != opstream.WritableWaiting {
			// dst can no longer accept writes; per spec §4.E the engine
			// must never write outside {writable, waiting}. Error this
			// op with the reason dst stopped accepting and terminate.
			werr := fmt.Errorf("pipe: downstream not writable (state %v)", dstState)
			_ = op.Error(werr)
			e.drainPending(werr)
			return true, werr, false
		}

		down, werr := e.dst.Write(op.Argument)
		if werr != nil {
			_ = op.Error(werr)
			e.drainPending(werr)
			return true, werr, false
		}

		e.link(op, down)
		return false, nil, true
	}
}

// link records the (upstream op, downstream status) pair and spawns the
// one watcher goroutine that mirrors the downstream outcome back onto the
// upstream op once it resolves. The watcher exits via e.done if the pipe
// terminates before the downstream status resolves, so it never leaks.
func (e *engine) link(op *opstream.Operation, down *opstream.Status) {
	e.pending[down] = op
	go func() {
		select {
		case <-down.Ready():
			select {
			case e.completions <- link{op: op, down: down}:
			case <-e.done:
			}
		case <-e.done:
		}
	}()
}

// resolve mirrors one downstream status's terminal outcome onto its
// linked upstream operation, per spec §4.E's "link it to the upstream op".
func (e *engine) resolve(l link) {
	delete(e.pending, l.down)
	switch l.down.State() {
	case opstream.StatusCompleted:
		_ = l.op.Complete(l.down.Result())
	default: // errored or cancelled
		_ = l.op.Error(l.down.Result())
	}
}

// drainPending errors every upstream op whose downstream status is still
// waiting with reason, and mirrors the actual outcome of any downstream
// status that resolved concurrently with termination — the same switch
// resolve uses, so a downstream write that errored in the same instant the
// pipe tore down is never misreported as completed. Per spec §4.E's
// "At-most-once linkage" / §9's "Termination must error pending upstream
// statuses before exiting."
func (e *engine) drainPending(reason error) {
	for down, op := range e.pending {
		switch down.State() {
		case opstream.StatusWaiting:
			_ = op.Error(reason)
		case opstream.StatusCompleted:
			_ = op.Complete(down.Result())
		default: // errored or cancelled
			_ = op.Error(down.Result())
		}
		delete(e.pending, down)
	}
}

// propagateWindow forwards dst's advertised window *changes* onto src, per
// spec §4.E's optional window-propagation note ("forward dst.window
// changes to src.window"). It does nothing until dst.Window reports ok —
// i.e. until the downstream consumer has actually called SetWindow at
// least once. Most strategies never advertise a window at all, in which
// case dst's window field just sits at its zero default forever; blindly
// forwarding that default the moment the pipe starts would stomp a
// source-side Adjustable strategy's own window with zero and deadlock it.
// Writable.Window reads the same shared pair field Readable.SetWindow
// writes, so a downstream stage's credit is visible to the writable
// handle this engine was given even though §6.2 doesn't list Window as a
// Writable observable — see SPEC_FULL.md's resolved Open Questions for
// why this accessor exists.
func (e *engine) propagateWindow() {
	w, ok := e.dst.Window()
	if !ok {
		return
	}
	if e.windowKnown && w == e.lastWindow {
		return
	}
	e.lastWindow = w
	e.windowKnown = true
	_ = e.src.SetWindow(w)
}
