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

package opstream

// Readable is the consumer-facing half of an operation-stream pair, per
// spec §4.B / §6.3. It is a lightweight view over the shared pair, not an
// owner of it.
type Readable struct {
	p *pair
}

// Read dequeues the head operation. It is a precondition failure to call
// Read unless State() is ReadableReadable.
func (r *Readable) Read() (*Operation, error) {
	p := r.p
	p.mu.Lock()
	if p.rState != ReadableReadable {
		st := p.rState
		p.mu.Unlock()
		return nil, newPreconditionError("Read", st)
	}

	op := p.queue[0]
	p.queue = p.queue[1:]

	switch op.Type {
	case OpClose:
		p.rState = ReadableDrained
	case OpAbort:
		p.rState = ReadableAborted
		p.abortOp = op
		p.resolveReadableErrored()
	default: // OpData
		p.queueDataSize -= op.size
		p.recomputeReadable()
	}

	relievedWritable, abortBecameReadable := p.recomputeWritable()
	p.mu.Unlock()

	if relievedWritable {
		notify(p.wReadyNotify)
	}
	if abortBecameReadable {
		notify(p.rReadyNotify)
	}
	return op, nil
}

// Cancel discards the queue, moves every still-waiting data status to
// StatusCancelled with reason, and marks both halves cancelled. It is a precondition failure
// unless State() is ReadableWaiting or ReadableReadable.
func (r *Readable) Cancel(reason interface{}) error {
	p := r.p
	p.mu.Lock()
	if p.rState != ReadableWaiting && p.rState != ReadableReadable {
		st := p.rState
		p.mu.Unlock()
		return newPreconditionError("Cancel", st)
	}

	for _, op := range p.queue {
		if op.Type == OpData {
			_ = op.status.transition(StatusCancelled, reason)
		}
	}
	p.queue = nil
	p.queueDataSize = 0

	p.cancelReason = reason
	p.rState = ReadableCancelled

	// Cancelled is absorbing (spec §9, open question i): if the writable
	// side already reached a terminal state of its own (closed/aborted)
	// before this cancel landed, it is not silently re-labeled.
	if !p.wState.terminal() {
		p.wState = WritableCancelled
		p.resolveWritableCancelled()
	}
	p.mu.Unlock()

	return nil
}

// State returns the readable side's current state.
func (r *Readable) State() ReadableState {
	p := r.p
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rState
}

// Window returns the currently advertised window.
func (r *Readable) Window() int {
	p := r.p
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window
}

// SetWindow stores a new window, forwards it to the strategy if it
// implements WindowUpdateListener, and re-evaluates writable backpressure.
// Setting the window to its current value is an observable no-op (spec §8
// invariant 5), since recomputeWritable only pulses Ready when the
// writable state actually flips. A panicking strategy.OnWindowUpdate is
// fatal (spec §4.A): it aborts the pair with the recovered value (unless
// the writable side is already terminal, which is absorbing) and SetWindow
// returns a *StrategyPanicError.
func (r *Readable) SetWindow(window int) error {
	p := r.p
	p.mu.Lock()
	if p.rState != ReadableWaiting && p.rState != ReadableReadable {
		st := p.rState
		p.mu.Unlock()
		return newPreconditionError("SetWindow", st)
	}

	p.window = window
	p.windowSet = true
	if listener, isListener := p.strategy.(WindowUpdateListener); isListener {
		if ok, reason := callOnWindowUpdate(listener, window); !ok {
			var becameReadable bool
			if !p.wState.terminal() {
				becameReadable = p.abortLocked(reason)
			}
			p.mu.Unlock()
			if becameReadable {
				notify(p.rReadyNotify)
			}
			return &StrategyPanicError{Reason: reason}
		}
	}

	relieved, abortBecameReadable := p.recomputeWritable()
	p.mu.Unlock()

	if relieved {
		notify(p.wReadyNotify)
	}
	if abortBecameReadable {
		notify(p.rReadyNotify)
	}
	return nil
}

// Ready returns a channel pulsed whenever the readable state becomes
// readable after being waiting. As with Writable.Ready, a receive drains
// one pulse and the caller should re-check State().
func (r *Readable) Ready() <-chan struct{} {
	return r.p.rReadyNotify
}

// Errored returns a channel closed once the readable side dequeues an abort
// operation.
func (r *Readable) Errored() <-chan struct{} {
	return r.p.rErroredCh
}

// AbortOperation returns the abort operation the readable side consumed,
// valid only once State() is ReadableAborted.
func (r *Readable) AbortOperation() (*Operation, bool) {
	p := r.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rState != ReadableAborted {
		return nil, false
	}
	return p.abortOp, true
}

// CancelOperation returns the reason passed to Cancel, valid only once
// State() is ReadableCancelled.
func (r *Readable) CancelOperation() (reason interface{}, ok bool) {
	p := r.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rState != ReadableCancelled {
		return nil, false
	}
	return p.cancelReason, true
}
