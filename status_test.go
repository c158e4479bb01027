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

import "testing"

func TestStatusTransitionOnce(t *testing.T) {
	s := newStatus()
	if s.State() != StatusWaiting {
		t.Fatalf("initial state = %v, want waiting", s.State())
	}

	select {
	case <-s.Ready():
		t.Fatalf("Ready resolved before any transition")
	default:
	}

	if err := s.transition(StatusCompleted, "ok"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if s.State() != StatusCompleted || s.Result() != "ok" {
		t.Fatalf("state/result = %v/%v, want completed/ok", s.State(), s.Result())
	}
	select {
	case <-s.Ready():
	default:
		t.Fatalf("Ready not resolved after transition")
	}

	if err := s.transition(StatusErrored, "late"); err != ErrAlreadyTerminal {
		t.Fatalf("second transition err = %v, want ErrAlreadyTerminal", err)
	}
}

func TestStatusReadyResolvesOnCancelledToo(t *testing.T) {
	s := newStatus()
	if err := s.transition(StatusCancelled, "gone"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	select {
	case <-s.Ready():
	default:
		t.Fatalf("Ready not resolved after cancelled transition")
	}
}

func TestOperationCompleteAndError(t *testing.T) {
	op := newOperation(OpData, "payload")
	if op.Status().State() != StatusWaiting {
		t.Fatalf("initial status state = %v, want waiting", op.Status().State())
	}
	if err := op.Complete(7); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if op.Status().State() != StatusCompleted || op.Status().Result() != 7 {
		t.Fatalf("status = %v/%v, want completed/7", op.Status().State(), op.Status().Result())
	}
	if err := op.Error("too late"); err != ErrAlreadyTerminal {
		t.Fatalf("Error after Complete err = %v, want ErrAlreadyTerminal", err)
	}
}
