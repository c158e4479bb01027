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

package facade

import (
	"testing"

	"github.com/flowmux/opstream"
)

func TestGetReaderExclusivity(t *testing.T) {
	_, r := opstream.NewOperationStream(nil)
	f := New(r)

	reader, err := f.GetReader()
	if err != nil {
		t.Fatalf("GetReader: %v", err)
	}
	if !f.Locked() {
		t.Fatalf("Locked() = false, want true")
	}

	if _, err := f.GetReader(); err != ErrLocked {
		t.Fatalf("second GetReader err = %v, want ErrLocked", err)
	}
	if _, err := f.Read(); err != ErrLocked {
		t.Fatalf("direct Read err = %v, want ErrLocked", err)
	}
	if err := f.Cancel("x"); err != ErrLocked {
		t.Fatalf("direct Cancel err = %v, want ErrLocked", err)
	}

	reader.ReleaseLock()
	if f.Locked() {
		t.Fatalf("Locked() = true after release, want false")
	}

	if _, err := f.GetReader(); err != nil {
		t.Fatalf("GetReader after release: %v", err)
	}
}

func TestReaderMethodsFailAfterRelease(t *testing.T) {
	w, r := opstream.NewOperationStream(nil)
	f := New(r)

	reader, err := f.GetReader()
	if err != nil {
		t.Fatalf("GetReader: %v", err)
	}
	reader.ReleaseLock()
	reader.ReleaseLock() // idempotent

	if _, err := reader.Read(); err != ErrReleased {
		t.Fatalf("Read after release err = %v, want ErrReleased", err)
	}
	if err := reader.Cancel("x"); err != ErrReleased {
		t.Fatalf("Cancel after release err = %v, want ErrReleased", err)
	}

	if _, err := w.Write("x"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	direct, err := f.Read()
	if err != nil {
		t.Fatalf("direct Read: %v", err)
	}
	if direct.Argument != "x" {
		t.Fatalf("Argument = %v, want x", direct.Argument)
	}
}

func TestFacadeShortcutsMatchUnderlyingHalf(t *testing.T) {
	w, r := opstream.NewOperationStream(nil)
	f := New(r)

	if _, err := w.Write("y"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	op, err := f.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if op.Argument != "y" {
		t.Fatalf("Argument = %v, want y", op.Argument)
	}

	if err := f.Cancel("done"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if f.State() != opstream.ReadableCancelled {
		t.Fatalf("State() = %v, want cancelled", f.State())
	}
}

func TestReaderClaimAllowsReadUnderLock(t *testing.T) {
	w, r := opstream.NewOperationStream(nil)
	f := New(r)

	reader, err := f.GetReader()
	if err != nil {
		t.Fatalf("GetReader: %v", err)
	}

	if _, err := w.Write("z"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	op, err := reader.Read()
	if err != nil {
		t.Fatalf("Reader.Read: %v", err)
	}
	if op.Argument != "z" {
		t.Fatalf("Argument = %v, want z", op.Argument)
	}
}
