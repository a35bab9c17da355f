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

package io

import "bytes"

// MatchWriter reports whether Pattern occurred anywhere in the bytes written
// to it, including occurrences spanning two writes. It keeps only the last
// len(Pattern)-1 bytes between writes.
type MatchWriter struct {
	pattern []byte
	carry   []byte
	matched bool
}

// NewMatchWriter returns a MatchWriter looking for pattern.
func NewMatchWriter(pattern string) *MatchWriter {
	return &MatchWriter{pattern: []byte(pattern)}
}

func (m *MatchWriter) Write(p []byte) (int, error) {
	if m.matched || len(m.pattern) == 0 {
		return len(p), nil
	}
	buf := append(m.carry, p...)
	if bytes.Contains(buf, m.pattern) {
		m.matched = true
		m.carry = nil
		return len(p), nil
	}
	keep := len(m.pattern) - 1
	if len(buf) > keep {
		buf = buf[len(buf)-keep:]
	}
	m.carry = append(m.carry[:0:0], buf...)
	return len(p), nil
}

// Matched reports whether the pattern was seen.
func (m *MatchWriter) Matched() bool {
	return m.matched
}
