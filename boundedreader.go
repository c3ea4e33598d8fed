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

package warc

import (
	"bufio"
	"io"
)

// BufferedReader is the line-oriented, length-bounded reader the core
// consumes on top of an IOStream, treated as a pluggable collaborator;
// bufReader below is the default binding used by ArchiveIterator and
// WarcFileReader.
type BufferedReader interface {
	// ReadLine returns the next line, including its trailing LF (and any
	// preceding CR). It returns io.EOF if the stream ends with no more
	// data, possibly along with a final, unterminated line.
	ReadLine() ([]byte, error)
	// ReadExactly returns exactly n bytes, or an error if fewer than n
	// remain.
	ReadExactly(n int64) ([]byte, error)
	// Consume discards up to n bytes, returning the number actually
	// discarded (less than n only at EOF).
	Consume(n int64) (int64, error)
	// ReadByte returns a single byte, used by the iterator's bounded
	// resynchronisation scan.
	ReadByte() (byte, error)
	// Tee causes every byte subsequently read (via any of the above) to
	// also be written to w, until ClearTee is called.
	Tee(w io.Writer)
	// ClearTee stops teeing reads to any previously set writer.
	ClearTee()
}

// bufReader is the default BufferedReader, a thin wrapper around
// bufio.Reader that adds an optional tee and the length-bounded helpers
// the core needs.
type bufReader struct {
	r   *bufio.Reader
	tee io.Writer
}

// NewBufferedReader wraps r with the default BufferedReader
// implementation.
func NewBufferedReader(r io.Reader) BufferedReader {
	return &bufReader{r: bufio.NewReaderSize(r, 64*1024)}
}

func (b *bufReader) teeWrite(p []byte) {
	if b.tee != nil && len(p) > 0 {
		_, _ = b.tee.Write(p)
	}
}

func (b *bufReader) ReadLine() ([]byte, error) {
	line, err := b.r.ReadBytes('\n')
	b.teeWrite(line)
	return line, err
}

func (b *bufReader) ReadExactly(n int64) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(b.r, buf)
	b.teeWrite(buf[:read])
	if err != nil {
		return buf[:read], newUnexpectedEOFError(err.Error())
	}
	return buf, nil
}

func (b *bufReader) Consume(n int64) (int64, error) {
	if b.tee == nil {
		discarded, err := b.r.Discard(int(n))
		return int64(discarded), err
	}
	// Discard doesn't expose the bytes it skips, so when teeing we must
	// actually read them.
	buf := make([]byte, 32*1024)
	var total int64
	for total < n {
		want := n - total
		if want > int64(len(buf)) {
			want = int64(len(buf))
		}
		rn, err := b.r.Read(buf[:want])
		b.teeWrite(buf[:rn])
		total += int64(rn)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (b *bufReader) ReadByte() (byte, error) {
	c, err := b.r.ReadByte()
	if err == nil {
		b.teeWrite([]byte{c})
	}
	return c, err
}

func (b *bufReader) Tee(w io.Writer) { b.tee = w }
func (b *bufReader) ClearTee()       { b.tee = nil }

// BoundedReader is a view over a shared BufferedReader that exposes
// exactly the declared content_length bytes of a record's block. Reads
// reduce the remaining-byte counter; once it reaches zero, reads return
// io.EOF without touching the underlying stream. An optional tee target
// (typically a DigestEngine) receives every byte returned.
//
// A BoundedReader must not outlive the ArchiveIterator step that produced
// it: advancing the iterator drains and invalidates it.
type BoundedReader struct {
	br        BufferedReader
	remaining int64
	tee       io.Writer
}

// newBoundedReader returns a BoundedReader over br bounded to n bytes,
// tee'd into w if w is non-nil.
func newBoundedReader(br BufferedReader, n int64, w io.Writer) *BoundedReader {
	return &BoundedReader{br: br, remaining: n, tee: w}
}

// Read implements io.Reader.
func (b *BoundedReader) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		return 0, io.EOF
	}
	want := int64(len(p))
	if want > b.remaining {
		want = b.remaining
	}
	if want == 0 {
		return 0, nil
	}
	data, err := b.br.ReadExactly(want)
	n := copy(p, data)
	b.remaining -= int64(n)
	if b.tee != nil && n > 0 {
		_, _ = b.tee.Write(data[:n])
	}
	return n, err
}

// Remaining returns the number of bytes not yet read.
func (b *BoundedReader) Remaining() int64 {
	return b.remaining
}

// drain discards whatever remains unread, so the underlying stream ends
// up positioned exactly at the record's end. Returns the number of bytes
// discarded.
func (b *BoundedReader) drain() (int64, error) {
	if b.remaining <= 0 {
		return 0, nil
	}
	var total int64
	buf := make([]byte, 32*1024)
	for b.remaining > 0 {
		n, err := b.Read(buf)
		total += int64(n)
		if err != nil {
			if err == io.EOF {
				break
			}
			return total, err
		}
	}
	return total, nil
}
