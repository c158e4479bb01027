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

// Package opstream implements a bidirectional operation-stream primitive: a
// paired producer/consumer channel carrying data, close, and abort
// operations with window-based backpressure and per-operation completion
// acknowledgement. See spec §§3-4 for the data model this package realizes.
package opstream

import "sync"

// WritableState is the state of the writable half of a pair, per spec §3.
type WritableState int32

const (
	// WritableWritable means the strategy reports no backpressure.
	WritableWritable WritableState = iota
	// WritableWaiting means backpressure is asserted.
	WritableWaiting
	// WritableClosed is terminal, entered via Writable.Close.
	WritableClosed
	// WritableAborted is terminal, entered via Writable.Abort or a
	// strategy failure.
	WritableAborted
	// WritableCancelled is terminal, entered when the reader cancels.
	WritableCancelled
)

func (s WritableState) String() string {
	switch s {
	case WritableWritable:
		return "writable"
	case WritableWaiting:
		return "waiting"
	case WritableClosed:
		return "closed"
	case WritableAborted:
		return "aborted"
	case WritableCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// terminal reports whether this writable state accepts no further mutators.
func (s WritableState) terminal() bool {
	return s == WritableClosed || s == WritableAborted || s == WritableCancelled
}

// ReadableState is the state of the readable half of a pair, per spec §3.
type ReadableState int32

const (
	// ReadableWaiting means the queue is empty.
	ReadableWaiting ReadableState = iota
	// ReadableReadable means the queue is non-empty.
	ReadableReadable
	// ReadableDrained is terminal, entered after consuming a close op.
	ReadableDrained
	// ReadableCancelled is terminal, entered via Readable.Cancel.
	ReadableCancelled
	// ReadableAborted is terminal, entered after consuming an abort op.
	ReadableAborted
)

func (s ReadableState) String() string {
	switch s {
	case ReadableWaiting:
		return "waiting"
	case ReadableReadable:
		return "readable"
	case ReadableDrained:
		return "drained"
	case ReadableCancelled:
		return "cancelled"
	case ReadableAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

func (s ReadableState) terminal() bool {
	return s == ReadableDrained || s == ReadableCancelled || s == ReadableAborted
}

// pair is the shared, exclusively owned structure behind a Writable/
// Readable handle pair: one FIFO queue of operations, one strategy, and
// the two half-state-machines of spec §3. The writable half is the sole
// enqueuer, the readable half the sole dequeuer (spec §5, "Shared
// resources"); mu guards every field below so that concurrent callers on
// either half observe atomic transitions, the Go realization of spec §5's
// "no transition observes another in flight".
type pair struct {
	mu sync.Mutex

	strategy QueuingStrategy

	queue          []*Operation
	queueDataSize  int  // sum of strategy.Size over queued data ops only
	terminalQueued bool // a close or abort op has been enqueued; further enqueues are barred by wState

	window    int
	windowSet bool // true once Readable.SetWindow has been called at least once

	wState WritableState

	rState  ReadableState
	abortOp *Operation // set once an abort op is dequeued on the readable side

	// cancelReason is the reason passed to Readable.Cancel, exposed on
	// both halves once cancellation lands (see Writable.CancelOperation
	// and Readable.CancelOperation).
	cancelReason interface{}

	// notify channels follow the teacher's bucketNotify pattern
	// (session.go's notifyBucket/s.bucketNotify): buffered to 1, drained
	// and re-armed by whoever is waiting, so a missed pulse just means
	// the waiter re-checks state on its next loop iteration instead of
	// blocking forever.
	wReadyNotify chan struct{}
	rReadyNotify chan struct{}

	wCancelledCh   chan struct{}
	wCancelledOnce sync.Once

	rErroredCh   chan struct{}
	rErroredOnce sync.Once
}

// NewOperationStream creates a fresh pair and returns its writable and
// readable halves, per spec §6.1. A nil strategy is treated as
// NoBackpressureStrategy.
func NewOperationStream(strategy QueuingStrategy) (*Writable, *Readable) {
	p := &pair{
		strategy:     strategyOrDefault(strategy),
		wState:       WritableWritable,
		rState:       ReadableWaiting,
		wReadyNotify: make(chan struct{}, 1),
		rReadyNotify: make(chan struct{}, 1),
		wCancelledCh: make(chan struct{}),
		rErroredCh:   make(chan struct{}),
	}
	return &Writable{p: p}, &Readable{p: p}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// recomputeWritable re-evaluates the writable state against the strategy's
// backpressure verdict. Must be called with mu held. wPulse is true if the
// writable side just left the waiting state — either relieved into
// writable, or aborted by a panicking strategy (spec §4.A, "Strategy
// exceptions are fatal: they abort the stream with the raised reason";
// the WRITABLE transition table's "* --strategy throws--> aborted(thrown)").
// rPulse is true if that panic-triggered abort replaced the queue with a
// single abort operation and the readable side just became readable after
// being waiting. Callers must pulse wReadyNotify/rReadyNotify (after
// unlocking) according to whichever of these came back true.
func (p *pair) recomputeWritable() (wPulse, rPulse bool) {
	if p.wState != WritableWritable && p.wState != WritableWaiting {
		return false, false
	}
	wasWaiting := p.wState == WritableWaiting

	pressured, ok, reason := callShouldApplyBackpressure(p.strategy, p.queueDataSize)
	if !ok {
		rPulse = p.abortLocked(reason)
		return wasWaiting, rPulse
	}
	if pressured {
		p.wState = WritableWaiting
		return false, false
	}
	p.wState = WritableWritable
	return wasWaiting, false
}

// abortLocked performs the same transition as Writable.Abort: it discards
// every queued data operation (erroring their statuses with reason),
// replaces the queue with a single abort operation, and moves the writable
// side to aborted. Callers must already hold mu and must have already
// checked that the writable side is not already terminal. Returns true if
// the readable side just became readable.
func (p *pair) abortLocked(reason interface{}) (becameReadable bool) {
	for _, op := range p.queue {
		if op.Type == OpData {
			_ = op.status.transition(StatusErrored, reason)
		}
	}

	op := newOperation(OpAbort, reason)
	p.queue = []*Operation{op}
	p.queueDataSize = 0
	p.terminalQueued = true
	p.wState = WritableAborted

	return p.recomputeReadable()
}

// recomputeReadable must be called with mu held; returns true if the
// readable side just became readable (queue went non-empty after being
// empty).
func (p *pair) recomputeReadable() (becameReadable bool) {
	if p.rState != ReadableWaiting && p.rState != ReadableReadable {
		return false
	}
	if len(p.queue) > 0 {
		wasWaiting := p.rState == ReadableWaiting
		p.rState = ReadableReadable
		return wasWaiting
	}
	p.rState = ReadableWaiting
	return false
}

// resolveWritableCancelled closes wCancelledCh exactly once. Must be called
// with mu held; closing a channel is non-blocking so this is safe to do
// without releasing the lock first.
func (p *pair) resolveWritableCancelled() {
	p.wCancelledOnce.Do(func() { close(p.wCancelledCh) })
}

// resolveReadableErrored closes rErroredCh exactly once. Must be called
// with mu held.
func (p *pair) resolveReadableErrored() {
	p.rErroredOnce.Do(func() { close(p.rErroredCh) })
}
