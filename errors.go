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

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyTerminal is returned by Operation.Complete/Operation.Error
	// (and the Status they advance) when the status has already left the
	// waiting state.
	ErrAlreadyTerminal = errors.New("opstream: status already terminal")

	// ErrClosedOrErrored reports an operation whose status has already
	// resolved. No function in this module returns it: the pipe engine
	// discards the error of a Complete/Error call on such an operation.
	ErrClosedOrErrored = errors.New("opstream: operation already resolved")
)

// PreconditionError reports that a mutator was invoked while the writable
// or readable half was not in a state that permits it, per the state
// tables in spec §4.B. It is the Go realization of spec §7's "Precondition
// failure: raised synchronously to the caller".
type PreconditionError struct {
	Op    string // e.g. "Write", "Read", "Cancel"
	State string // the half's state at the time of the call
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("opstream: %s: precondition failed in state %q", e.Op, e.State)
}

func newPreconditionError(op string, state fmt.Stringer) error {
	return &PreconditionError{Op: op, State: state.String()}
}

// StrategyPanicError reports that a QueuingStrategy method panicked. Per
// spec §4.A ("Strategy exceptions are fatal: they abort the stream with
// the raised reason"), the pair's writable side is aborted with Reason
// (unless it was already terminal) before this error reaches the caller
// that triggered the panic.
type StrategyPanicError struct{ Reason interface{} }

func (e *StrategyPanicError) Error() string {
	return fmt.Sprintf("opstream: queuing strategy panicked: %v", e.Reason)
}
