// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package io provides writers that inspect or bound a stream of process
// output.
package io

import (
	"io"
)

// LimitedWriter writes the first N bytes to W and discards the rest while
// reporting every write as complete, so a producer on the other end of a
// pipe is never blocked or failed by the limit.
type LimitedWriter struct {
	W io.Writer // underlying writer
	N int64     // remaining bytes

	truncated bool
}

// LimitWriter returns a LimitedWriter keeping at most limit bytes.
func LimitWriter(w io.Writer, limit int64) *LimitedWriter {
	return &LimitedWriter{W: w, N: limit}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	total := len(p)
	if int64(total) > l.N {
		p = p[:l.N]
		l.truncated = true
	}
	if len(p) == 0 {
		return total, nil
	}
	n, err := l.W.Write(p)
	l.N -= int64(n)
	if err != nil {
		return n, err
	}
	return total, nil
}

// Truncated reports whether any bytes were discarded.
func (l *LimitedWriter) Truncated() bool {
	return l.truncated
}
