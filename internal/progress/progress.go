/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// Package progress defines the sink the container engine reports
// byte-level progress to. The engine never formats or renders; it
// only invokes the sink with counts.
package progress

// Sink receives incremental byte-count updates during a streaming
// encrypt or decrypt. OnBytes is called once per processed buffer
// with the number of bytes in that buffer. OnFinish is called once,
// after the last buffer, with the total bytes processed; an operation
// that fails does not call it.
type Sink interface {
	OnBytes(n int64)
	OnFinish(total int64)
}

// Nop is a Sink that does nothing; the default when the caller
// doesn't care about progress.
type Nop struct{}

func (Nop) OnBytes(int64)  {}
func (Nop) OnFinish(int64) {}

// Func adapts two plain functions into a Sink.
type Func struct {
	Bytes  func(n int64)
	Finish func(total int64)
}

func (f Func) OnBytes(n int64) {
	if f.Bytes != nil {
		f.Bytes(n)
	}
}

func (f Func) OnFinish(total int64) {
	if f.Finish != nil {
		f.Finish(total)
	}
}
