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

// QueuingStrategy computes the size of queued data operations and decides
// when the writable side of a pair should report backpressure. It is the
// pluggable policy referenced throughout spec §4.A.
//
// Implementations should embed BaseStrategy to pick up the spec's defaults
// (size 1 per item, never backpressured) for whichever methods they don't
// need to customize.
type QueuingStrategy interface {
	// Size returns the queue-size contribution of a data operation's
	// argument. Control operations (close/abort/cancel) are never sized;
	// the pair always treats them as zero.
	Size(argument interface{}) int

	// ShouldApplyBackpressure reports whether the writable side should
	// move to (or remain in) the waiting state given the current total
	// queue size.
	ShouldApplyBackpressure(queueSize int) bool
}

// SpaceReporter is an optional strategy capability exposing the remaining
// capacity for the writable side's Space() observer.
type SpaceReporter interface {
	Space(queueSize int) int
}

// WindowUpdateListener is an optional strategy capability notified whenever
// the readable side's window changes.
type WindowUpdateListener interface {
	OnWindowUpdate(window int)
}

// BaseStrategy supplies the spec's defaults for a QueuingStrategy: every
// item sizes to 1, and backpressure is never applied. Strategies that only
// need to customize one axis (e.g. only sizing) can embed this.
type BaseStrategy struct{}

// Size implements QueuingStrategy.
func (BaseStrategy) Size(interface{}) int { return 1 }

// ShouldApplyBackpressure implements QueuingStrategy.
func (BaseStrategy) ShouldApplyBackpressure(int) bool { return false }

// NoBackpressureStrategy never applies backpressure; every item sizes to 1.
// It is also what a nil strategy is treated as by NewOperationStream, per
// spec §6.1.
type NoBackpressureStrategy struct{ BaseStrategy }

// ApplyBackpressureWhenNonEmptyStrategy asserts backpressure the instant the
// queue is non-empty, giving an at-most-one-write-in-flight protocol.
type ApplyBackpressureWhenNonEmptyStrategy struct{ BaseStrategy }

// ShouldApplyBackpressure implements QueuingStrategy.
func (ApplyBackpressureWhenNonEmptyStrategy) ShouldApplyBackpressure(queueSize int) bool {
	return queueSize > 0
}

// sizeFunc computes the queue-size contribution of a data argument for an
// AdjustableStrategy.
type sizeFunc func(argument interface{}) int

// ByteLength is a sizeFunc treating []byte arguments by their length, and
// anything else as size 1.
func ByteLength(argument interface{}) int {
	if b, ok := argument.([]byte); ok {
		return len(b)
	}
	return 1
}

// StringLength is a sizeFunc treating string arguments by their length, and
// anything else as size 1.
func StringLength(argument interface{}) int {
	if s, ok := argument.(string); ok {
		return len(s)
	}
	return 1
}

// AdjustableStrategy implements a window-credit strategy: backpressure is
// asserted once the queue size reaches the current window, and Space()
// reports the remaining credit. Calling OnWindowUpdate (normally done
// through Readable.SetWindow, which forwards here) changes the window the
// pair re-evaluates against.
type AdjustableStrategy struct {
	size sizeFunc

	mu     sync.Mutex
	window int
}

var (
	_ QueuingStrategy      = (*AdjustableStrategy)(nil)
	_ SpaceReporter        = (*AdjustableStrategy)(nil)
	_ WindowUpdateListener = (*AdjustableStrategy)(nil)
)

// NewAdjustableByteStrategy returns an AdjustableStrategy whose Size
// treats []byte arguments by byte length.
func NewAdjustableByteStrategy(window int) *AdjustableStrategy {
	return &AdjustableStrategy{size: ByteLength, window: window}
}

// NewAdjustableStringStrategy returns an AdjustableStrategy whose Size
// treats string arguments by rune-byte length.
func NewAdjustableStringStrategy(window int) *AdjustableStrategy {
	return &AdjustableStrategy{size: StringLength, window: window}
}

// Size implements QueuingStrategy.
func (a *AdjustableStrategy) Size(argument interface{}) int {
	return a.size(argument)
}

// ShouldApplyBackpressure implements QueuingStrategy.
func (a *AdjustableStrategy) ShouldApplyBackpressure(queueSize int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return queueSize >= a.window
}

// Space implements SpaceReporter.
func (a *AdjustableStrategy) Space(queueSize int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	space := a.window - queueSize
	if space < 0 {
		space = 0
	}
	return space
}

// OnWindowUpdate implements WindowUpdateListener.
func (a *AdjustableStrategy) OnWindowUpdate(window int) {
	a.mu.Lock()
	a.window = window
	a.mu.Unlock()
}

// Window reports the strategy's current window.
func (a *AdjustableStrategy) Window() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.window
}

func strategyOrDefault(s QueuingStrategy) QueuingStrategy {
	if s == nil {
		return NoBackpressureStrategy{}
	}
	return s
}

// callSize invokes strategy.Size, recovering a panic into (0, false,
// reason) instead of letting it cross into the caller's goroutine. Spec
// §4.A: "Strategy exceptions are fatal: they abort the stream with the
// raised reason" — callers use ok==false as the signal to abort the pair
// with panicReason rather than proceed.
func callSize(s QueuingStrategy, argument interface{}) (size int, ok bool, panicReason interface{}) {
	defer func() {
		if r := recover(); r != nil {
			size, ok, panicReason = 0, false, r
		}
	}()
	return s.Size(argument), true, nil
}

// callShouldApplyBackpressure invokes strategy.ShouldApplyBackpressure with
// the same panic-to-abort-reason contract as callSize.
func callShouldApplyBackpressure(s QueuingStrategy, queueSize int) (pressured bool, ok bool, panicReason interface{}) {
	defer func() {
		if r := recover(); r != nil {
			pressured, ok, panicReason = false, false, r
		}
	}()
	return s.ShouldApplyBackpressure(queueSize), true, nil
}

// callSpace invokes strategy.Space if the strategy implements SpaceReporter,
// with the same panic-to-abort-reason contract as callSize. reported is
// false when the strategy implements no Space capability at all — distinct
// from ok, which is false only when Space itself panicked.
func callSpace(s QueuingStrategy, queueSize int) (space int, reported bool, ok bool, panicReason interface{}) {
	sr, isReporter := s.(SpaceReporter)
	if !isReporter {
		return 0, false, true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			space, reported, ok, panicReason = 0, true, false, r
		}
	}()
	return sr.Space(queueSize), true, true, nil
}

// callOnWindowUpdate invokes listener.OnWindowUpdate with the same
// panic-to-abort-reason contract as callSize.
func callOnWindowUpdate(listener WindowUpdateListener, window int) (ok bool, panicReason interface{}) {
	defer func() {
		if r := recover(); r != nil {
			ok, panicReason = false, r
		}
	}()
	listener.OnWindowUpdate(window)
	return true, nil
}
