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

import "fmt"

// Config bundles the ambient knobs that consumers of this package
// (examples/bufsource, examples/bytesink, cmd/opstreamdemo) use to size an
// Adjustable strategy's starting window. It plays the role the teacher's own
// Config struct plays for smux.Session (MaxReceiveBuffer, KeepAliveInterval):
// the core (pair.go/writable.go/readable.go/pipe.go) needs none of it and
// takes a bare QueuingStrategy instead.
type Config struct {
	// InitialWindow seeds an AdjustableStrategy's starting window when a
	// caller wants window-based backpressure without hand-rolling one.
	InitialWindow int
}

// DefaultConfig returns the package's baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		InitialWindow: 4096,
	}
}

// Verify validates the configuration, mirroring the teacher's practice of
// validating a Config before it's handed to a session constructor.
func (c *Config) Verify() error {
	if c.InitialWindow < 0 {
		return fmt.Errorf("opstream: InitialWindow must be >= 0, got %d", c.InitialWindow)
	}
	return nil
}
