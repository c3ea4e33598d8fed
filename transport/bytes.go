/*
 * Copyright 2021 National Library of Norway.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package transport

import "bytes"

// Bytes is an IOStream over an in-memory buffer: reads drain it in
// insertion order, writes append to it. Useful for tests and for embedding
// the codec in a pipeline that already holds payloads in memory (e.g.
// serving cached responses without touching disk).
type Bytes struct {
	buf *bytes.Buffer
}

// NewBytes returns a Bytes stream seeded with initial, if any. Reads drain
// initial first; writes append after it.
func NewBytes(initial []byte) *Bytes {
	return &Bytes{buf: bytes.NewBuffer(initial)}
}

func (b *Bytes) Read(p []byte) (int, error)  { return b.buf.Read(p) }
func (b *Bytes) Write(p []byte) (int, error) { return b.buf.Write(p) }

// Bytes returns the unread/unwritten contents of the buffer.
func (b *Bytes) Bytes() []byte { return b.buf.Bytes() }
