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

func TestNoBackpressureStrategy(t *testing.T) {
	var s NoBackpressureStrategy
	if s.Size("anything") != 1 {
		t.Fatalf("Size = %d, want 1", s.Size("anything"))
	}
	if s.ShouldApplyBackpressure(1000) {
		t.Fatalf("ShouldApplyBackpressure(1000) = true, want false")
	}
}

func TestApplyBackpressureWhenNonEmptyStrategy(t *testing.T) {
	var s ApplyBackpressureWhenNonEmptyStrategy
	if s.ShouldApplyBackpressure(0) {
		t.Fatalf("ShouldApplyBackpressure(0) = true, want false")
	}
	if !s.ShouldApplyBackpressure(1) {
		t.Fatalf("ShouldApplyBackpressure(1) = false, want true")
	}
}

func TestByteAndStringLength(t *testing.T) {
	if got := ByteLength([]byte("abcd")); got != 4 {
		t.Fatalf("ByteLength([]byte) = %d, want 4", got)
	}
	if got := ByteLength("not bytes"); got != 1 {
		t.Fatalf("ByteLength(non-[]byte) = %d, want 1", got)
	}
	if got := StringLength("abcde"); got != 5 {
		t.Fatalf("StringLength(string) = %d, want 5", got)
	}
	if got := StringLength(42); got != 1 {
		t.Fatalf("StringLength(non-string) = %d, want 1", got)
	}
}

type panickingStrategy struct{ BaseStrategy }

func (panickingStrategy) ShouldApplyBackpressure(int) bool {
	panic("backpressure policy exploded")
}

func TestCallWrappersRecoverStrategyPanics(t *testing.T) {
	if size, ok, reason := callSize(panicOnSize{}, "x"); ok || size != 0 || reason != "size exploded" {
		t.Fatalf("callSize = (%d, %v, %v), want (0, false, \"size exploded\")", size, ok, reason)
	}

	if pressured, ok, reason := callShouldApplyBackpressure(panickingStrategy{}, 1); ok || pressured || reason != "backpressure policy exploded" {
		t.Fatalf("callShouldApplyBackpressure = (%v, %v, %v), want (false, false, \"backpressure policy exploded\")", pressured, ok, reason)
	}

	if space, reported, ok, reason := callSpace(panicOnSpace{}, 1); !reported || ok || space != 0 || reason != "space exploded" {
		t.Fatalf("callSpace = (%d, %v, %v, %v), want (0, true, false, \"space exploded\")", space, reported, ok, reason)
	}

	if ok, reason := callOnWindowUpdate(panicOnWindowUpdate{}, 5); ok || reason != "window update exploded" {
		t.Fatalf("callOnWindowUpdate = (%v, %v), want (false, \"window update exploded\")", ok, reason)
	}
}

type panicOnSize struct{ BaseStrategy }

func (panicOnSize) Size(interface{}) int { panic("size exploded") }

type panicOnSpace struct{ BaseStrategy }

func (panicOnSpace) Space(int) int { panic("space exploded") }

var _ SpaceReporter = panicOnSpace{}

type panicOnWindowUpdate struct{}

func (panicOnWindowUpdate) OnWindowUpdate(int) { panic("window update exploded") }

func TestAdjustableStrategyWindowUpdate(t *testing.T) {
	s := NewAdjustableByteStrategy(5)
	if s.Window() != 5 {
		t.Fatalf("Window() = %d, want 5", s.Window())
	}
	if s.ShouldApplyBackpressure(5) != true {
		t.Fatalf("ShouldApplyBackpressure(5) at window 5 = false, want true")
	}
	s.OnWindowUpdate(10)
	if s.ShouldApplyBackpressure(5) {
		t.Fatalf("ShouldApplyBackpressure(5) at window 10 = true, want false")
	}
	if space := s.Space(5); space != 5 {
		t.Fatalf("Space(5) at window 10 = %d, want 5", space)
	}
}
