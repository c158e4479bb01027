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

// Command opstreamdemo wires examples/bufsource to examples/bytesink
// through pipe.PipeOperationStreams and logs the total bytes transferred —
// a runnable instance of spec §8 scenario S5.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sagernet/sing/common/logger"

	"github.com/flowmux/opstream"
	"github.com/flowmux/opstream/examples/bufsource"
	"github.com/flowmux/opstream/examples/bytesink"
	"github.com/flowmux/opstream/pipe"
)

// stdLogger adapts the standard library's log.Logger to sing's
// logger.Logger interface, the same shim shape consumers of the teacher's
// own dependency tree use over a bare stdlib logger.
type stdLogger struct{ *log.Logger }

func (l stdLogger) Trace(args ...any) { l.Println(prepend("TRACE", args)...) }
func (l stdLogger) Debug(args ...any) { l.Println(prepend("DEBUG", args)...) }
func (l stdLogger) Info(args ...any)  { l.Println(prepend("INFO", args)...) }
func (l stdLogger) Warn(args ...any)  { l.Println(prepend("WARN", args)...) }
func (l stdLogger) Error(args ...any) { l.Println(prepend("ERROR", args)...) }
func (l stdLogger) Fatal(args ...any) { l.Fatalln(prepend("FATAL", args)...) }
func (l stdLogger) Panic(args ...any) { l.Panicln(prepend("PANIC", args)...) }

func prepend(tag string, args []any) []any {
	return append([]any{tag}, args...)
}

var _ logger.Logger = stdLogger{}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	lg := stdLogger{log.New(os.Stdout, "opstreamdemo ", log.LstdFlags)}

	cfg := opstream.DefaultConfig()
	if err := cfg.Verify(); err != nil {
		return err
	}

	strategy := opstream.NewAdjustableByteStrategy(cfg.InitialWindow)
	srcW, srcR := opstream.NewOperationStream(strategy)

	source := bufsource.New(srcW)
	sink := bytesink.New(opstream.ApplyBackpressureWhenNonEmptyStrategy{}, io.Discard)

	errCh := make(chan error, 3)

	go func() {
		lg.Info("source: starting")
		errCh <- source.Run()
	}()

	go func() {
		lg.Info("sink: starting")
		errCh <- sink.Run()
	}()

	go func() {
		errCh <- pipe.PipeOperationStreams(context.Background(), srcR, sink.Writable())
	}()

	var firstErr error
	for i := 0; i < 3; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return firstErr
	}

	lg.Info(fmt.Sprintf("sink received %d bytes", sink.Count()))
	return nil
}
