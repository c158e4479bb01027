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

// Package facade is the high-level readable-stream boundary of spec §4.F:
// it wraps an opstream.Readable with exclusive reader locking, consuming
// the core only through opstream's public §4.B contracts and adding no
// protocol of its own.
package facade

import (
	"errors"
	"sync/atomic"

	"github.com/flowmux/opstream"
)

// ErrLocked is returned by a ReadableStreamFacade's GetReader, Read and
// Cancel while a Reader claim is outstanding — spec §9's "Locking
// (façade)": "attempts to use the half directly while locked fail with a
// precondition error."
var ErrLocked = errors.New("facade: readable side is locked by a reader")

// ErrReleased is returned by a Reader's methods once ReleaseLock has been
// called on it.
var ErrReleased = errors.New("facade: reader already released")

// ReadableStreamFacade wraps an opstream.Readable with the exclusive
// reader-locking, read()/cancel() shortcuts, and terminal-state channels a
// higher-level readable stream needs, per spec §4.F / §6.3's "getReader()
// (façade only)".
type ReadableStreamFacade struct {
	readable *opstream.Readable

	locked int32 // 0 unlocked, 1 locked; CAS-guarded, mirrors the teacher's atomic flags (session.go's dataReady/goAway)
}

// New wraps readable in a ReadableStreamFacade.
func New(readable *opstream.Readable) *ReadableStreamFacade {
	return &ReadableStreamFacade{readable: readable}
}

// Locked reports whether a Reader claim is currently outstanding.
func (f *ReadableStreamFacade) Locked() bool {
	return atomic.LoadInt32(&f.locked) != 0
}

// GetReader claims exclusive access to the underlying readable half,
// returning a Reader. Only one Reader may be outstanding at a time; a
// second call fails with ErrLocked until the first is released.
func (f *ReadableStreamFacade) GetReader() (*Reader, error) {
	if !atomic.CompareAndSwapInt32(&f.locked, 0, 1) {
		return nil, ErrLocked
	}
	return &Reader{facade: f}, nil
}

// Read is a read() shortcut that bypasses GetReader, failing with
// ErrLocked while a Reader claim is outstanding.
func (f *ReadableStreamFacade) Read() (*opstream.Operation, error) {
	if f.Locked() {
		return nil, ErrLocked
	}
	return f.readable.Read()
}

// Cancel is a cancel() shortcut that bypasses GetReader, failing with
// ErrLocked while a Reader claim is outstanding.
func (f *ReadableStreamFacade) Cancel(reason interface{}) error {
	if f.Locked() {
		return ErrLocked
	}
	return f.readable.Cancel(reason)
}

// Ready returns the underlying readable side's Ready channel.
func (f *ReadableStreamFacade) Ready() <-chan struct{} {
	return f.readable.Ready()
}

// Errored returns the underlying readable side's Errored channel — the
// "errored promise" of spec §4.F.
func (f *ReadableStreamFacade) Errored() <-chan struct{} {
	return f.readable.Errored()
}

// State returns the underlying readable side's current state.
func (f *ReadableStreamFacade) State() opstream.ReadableState {
	return f.readable.State()
}

// Reader is an exclusive claim on a ReadableStreamFacade's underlying
// readable half, obtained via GetReader. Its Read and Cancel methods fail
// with ErrReleased once ReleaseLock has been called.
type Reader struct {
	facade   *ReadableStreamFacade
	released int32
}

// Read dequeues the head operation via the locked readable half.
func (r *Reader) Read() (*opstream.Operation, error) {
	if atomic.LoadInt32(&r.released) != 0 {
		return nil, ErrReleased
	}
	return r.facade.readable.Read()
}

// Cancel cancels the locked readable half.
func (r *Reader) Cancel(reason interface{}) error {
	if atomic.LoadInt32(&r.released) != 0 {
		return ErrReleased
	}
	return r.facade.readable.Cancel(reason)
}

// Ready returns the underlying readable side's Ready channel.
func (r *Reader) Ready() <-chan struct{} {
	return r.facade.readable.Ready()
}

// Errored returns the underlying readable side's Errored channel.
func (r *Reader) Errored() <-chan struct{} {
	return r.facade.readable.Errored()
}

// ReleaseLock releases this Reader's exclusive claim, allowing a future
// GetReader call to succeed. Calling it twice is a no-op.
func (r *Reader) ReleaseLock() {
	if atomic.CompareAndSwapInt32(&r.released, 0, 1) {
		atomic.StoreInt32(&r.facade.locked, 0)
	}
}
