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

import "sync"

// StatusState is the lifecycle state of a Status, per spec §4.C.
type StatusState int32

const (
	// StatusWaiting is the initial state of every Status.
	StatusWaiting StatusState = iota
	// StatusCompleted is set when the consumer calls Operation.Complete.
	StatusCompleted
	// StatusErrored is set when the consumer calls Operation.Error.
	StatusErrored
	// StatusCancelled is set when the reader cancels the pair, discarding
	// whatever operation this status belongs to.
	StatusCancelled
)

func (s StatusState) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusCompleted:
		return "completed"
	case StatusErrored:
		return "errored"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Status is the handle returned by Writable.Write, joining the producer to
// whatever outcome the consumer eventually assigns the operation. Its
// lifecycle is waiting -> {completed, errored, cancelled}, and Ready
// resolves on any of the three terminal transitions (spec §9, open
// question iii).
type Status struct {
	mu     sync.Mutex
	state  StatusState
	result interface{}

	ready     chan struct{}
	readyOnce sync.Once
}

func newStatus() *Status {
	return &Status{state: StatusWaiting, ready: make(chan struct{})}
}

// State returns the status's current state.
func (s *Status) State() StatusState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the value supplied at the terminal transition (the
// completed result, the error reason, or the cancel reason). It is only
// meaningful once State() is no longer StatusWaiting.
func (s *Status) Result() interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Ready returns a channel closed once the status leaves StatusWaiting.
func (s *Status) Ready() <-chan struct{} {
	return s.ready
}

// transition advances the status to a terminal state exactly once; a
// second call (from any of complete/error/cancel) fails with
// ErrAlreadyTerminal, the Go realization of spec §4.B's "a second
// invocation fails".
func (s *Status) transition(state StatusState, result interface{}) error {
	s.mu.Lock()
	if s.state != StatusWaiting {
		s.mu.Unlock()
		return ErrAlreadyTerminal
	}
	s.state = state
	s.result = result
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	return nil
}
