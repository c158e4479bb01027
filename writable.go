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

// Writable is the producer-facing half of an operation-stream pair, per
// spec §4.B / §6.2. It is a lightweight view over the shared pair, not an
// owner of it (spec §3, "Lifecycle ownership").
type Writable struct {
	p *pair
}

// Write enqueues a data operation carrying argument and returns the Status
// the consumer will eventually resolve. Write is permitted even while the
// state is waiting — the contract is advisory, per spec §4.B. A panicking
// strategy.Size is fatal (spec §4.A): it aborts the pair with the
// recovered value and Write returns a *StrategyPanicError instead of
// enqueuing anything.
func (w *Writable) Write(argument interface{}) (*Status, error) {
	p := w.p
	p.mu.Lock()
	if p.wState != WritableWritable && p.wState != WritableWaiting {
		st := p.wState
		p.mu.Unlock()
		return nil, newPreconditionError("Write", st)
	}

	size, ok, reason := callSize(p.strategy, argument)
	if !ok {
		becameReadable := p.abortLocked(reason)
		p.mu.Unlock()
		if becameReadable {
			notify(p.rReadyNotify)
		}
		return nil, &StrategyPanicError{Reason: reason}
	}

	op := newOperation(OpData, argument)
	op.size = size
	p.queue = append(p.queue, op)
	p.queueDataSize += op.size

	becameReadable := p.recomputeReadable()
	wAbortPulse, rAbortPulse := p.recomputeWritable() // a write can only ever add pressure, never relieve it — the pulses below only fire if the strategy panics here
	p.mu.Unlock()

	if becameReadable || rAbortPulse {
		notify(p.rReadyNotify)
	}
	if wAbortPulse {
		notify(p.wReadyNotify)
	}
	return op.status, nil
}

// Close enqueues the stream's single close operation and transitions the
// writable side to closed. No further writes are permitted afterward.
func (w *Writable) Close() error {
	p := w.p
	p.mu.Lock()
	if p.wState != WritableWritable && p.wState != WritableWaiting {
		st := p.wState
		p.mu.Unlock()
		return newPreconditionError("Close", st)
	}

	op := newOperation(OpClose, nil)
	p.queue = append(p.queue, op)
	p.terminalQueued = true
	p.wState = WritableClosed

	becameReadable := p.recomputeReadable()
	p.mu.Unlock()

	if becameReadable {
		notify(p.rReadyNotify)
	}
	return nil
}

// Abort drops every queued data operation (erroring their statuses with
// reason), enqueues a single abort operation carrying reason, and
// transitions the writable side to aborted.
func (w *Writable) Abort(reason interface{}) error {
	p := w.p
	p.mu.Lock()
	if p.wState.terminal() {
		st := p.wState
		p.mu.Unlock()
		return newPreconditionError("Abort", st)
	}

	becameReadable := p.abortLocked(reason)
	p.mu.Unlock()

	if becameReadable {
		notify(p.rReadyNotify)
	}
	return nil
}

// State returns the writable side's current state.
func (w *Writable) State() WritableState {
	p := w.p
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wState
}

// Space reports the strategy's remaining capacity, if the strategy
// implements SpaceReporter. ok is false when the strategy exposes no
// notion of space (e.g. NoBackpressureStrategy) or when strategy.Space
// panicked, in which case the pair has already been aborted with the
// recovered value (spec §4.A).
func (w *Writable) Space() (space int, ok bool) {
	p := w.p
	p.mu.Lock()

	value, reported, succeeded, reason := callSpace(p.strategy, p.queueDataSize)
	if !reported {
		p.mu.Unlock()
		return 0, false
	}
	if !succeeded {
		// Cancelled/closed/aborted is absorbing (spec §9, open question
		// i): don't re-label an already-terminal writable side just
		// because Space panicked on a stream that's already done.
		if !p.wState.terminal() {
			becameReadable := p.abortLocked(reason)
			p.mu.Unlock()
			if becameReadable {
				notify(p.rReadyNotify)
			}
			return 0, false
		}
		p.mu.Unlock()
		return 0, false
	}

	p.mu.Unlock()
	return value, true
}

// Window reads the pair's shared window field — the same one
// Readable.SetWindow writes. ok is false if SetWindow has never been
// called on this pair's readable half (most strategies never advertise a
// window at all), which lets a pipe engine distinguish "downstream has no
// window concept" from "downstream's window is 0" when deciding whether
// to propagate anything upstream. It exists so a pipe engine holding this
// Writable as its downstream handle can observe the downstream reader's
// advertised credit (spec §4.E's window propagation note); §6.2 does not
// list it as a Writable observable, so treat it as a pipe-internal
// extension rather than part of the stable producer-facing contract.
func (w *Writable) Window() (window int, ok bool) {
	p := w.p
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window, p.windowSet
}

// Ready returns a channel pulsed whenever the writable state leaves
// waiting. Like the teacher's bucketNotify, a receive drains one pulse; a
// caller should re-check State() after waking, since the pulse can be
// stale by the time it's observed.
func (w *Writable) Ready() <-chan struct{} {
	return w.p.wReadyNotify
}

// Cancelled returns a channel closed once the reader cancels the pair.
func (w *Writable) Cancelled() <-chan struct{} {
	return w.p.wCancelledCh
}

// CancelOperation returns the reason the reader passed to Readable.Cancel,
// valid only once State() is WritableCancelled. This resolves spec §4.E's
// reference to `dst.cancelOperation.argument`, which has no explicit home
// in the §6.2 observable list.
func (w *Writable) CancelOperation() (reason interface{}, ok bool) {
	p := w.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.wState != WritableCancelled {
		return nil, false
	}
	return p.cancelReason, true
}
