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

// OpType is the kind of a queued Operation, per spec §3.
type OpType int

const (
	// OpData carries a producer-supplied argument through the queue.
	OpData OpType = iota
	// OpClose is the single terminal "graceful end" operation.
	OpClose
	// OpAbort is the single terminal "producer-initiated failure" operation.
	OpAbort
	// OpCancel names a reader-initiated cancel. No operation of this type
	// is ever created: Readable.Cancel discards the queue instead, and the
	// pipe engine carries a cancel reason via Writable.CancelOperation.
	OpCancel
)

func (t OpType) String() string {
	switch t {
	case OpData:
		return "data"
	case OpClose:
		return "close"
	case OpAbort:
		return "abort"
	case OpCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Operation is a single queued item: an immutable type/argument pair and a
// mutable link to the Status it advances when the consumer completes or
// errors it (spec §3, "Operation record").
type Operation struct {
	Type     OpType
	Argument interface{}

	status *Status
	size   int // cached strategy.Size(Argument) at enqueue time; 0 for control ops
}

func newOperation(t OpType, argument interface{}) *Operation {
	return &Operation{Type: t, Argument: argument, status: newStatus()}
}

// Status returns the Status this operation advances. Control operations
// carry a sentinel Status that nobody else observes.
func (o *Operation) Status() *Status { return o.status }

// Complete transitions the operation's linked status to completed with the
// given result. It is a precondition failure (ErrAlreadyTerminal) to call
// this more than once, or after Error, on the same operation.
func (o *Operation) Complete(result interface{}) error {
	return o.status.transition(StatusCompleted, result)
}

// Error transitions the operation's linked status to errored with the
// given reason. It is a precondition failure (ErrAlreadyTerminal) to call
// this more than once, or after Complete, on the same operation.
func (o *Operation) Error(reason interface{}) error {
	return o.status.transition(StatusErrored, reason)
}
