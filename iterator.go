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
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// stepResult is the internal outcome of one state-machine pass.
type stepResult int

const (
	stepHasNext stepResult = iota
	stepSkip
	stepEOF
)

// boundaryMarker is the byte sequence that opens every record's status line.
const boundaryMarker = "WARC/"

// ArchiveIterator advances a shared BufferedReader from one record
// boundary to the next, producing Records on demand and skipping filtered
// or malformed entries. It runs a SEEK_BOUNDARY → READ_HEADERS →
// EMIT_RECORD → CONSUME_REMAINDER state machine internally: each public
// Next call runs the loop and surfaces only a Record or termination,
// never an intermediate skip.
type ArchiveIterator struct {
	br   BufferedReader
	opts *iteratorOptions

	current *BoundedReader // the just-emitted record's reader, drained on the next Next call
	eof     bool
	err     error

	log *logrus.Entry
}

// NewArchiveIterator constructs an iterator over stream, applying any
// IteratorOption overrides. The default filter admits every record type
// and HTTP inner headers are parsed eagerly.
func NewArchiveIterator(stream io.Reader, opts ...IteratorOption) *ArchiveIterator {
	o := defaultIteratorOptions()
	for _, opt := range opts {
		opt.applyIterator(o)
	}
	return &ArchiveIterator{
		br:   NewBufferedReader(stream),
		opts: o,
		log:  logger.WithField("component", "archive_iterator"),
	}
}

// Next returns the next admitted Record, or (nil, io.EOF) once the stream
// is exhausted. An IOFailureError terminates the iterator permanently;
// every subsequent call returns the same error.
func (it *ArchiveIterator) Next() (*Record, error) {
	if it.err != nil {
		return nil, it.err
	}
	if it.eof {
		return nil, io.EOF
	}

	if it.current != nil {
		if err := it.finishCurrent(); err != nil {
			it.err = err
			it.eof = true
			return nil, err
		}
	}

	for {
		rec, result, err := it.step()
		if err != nil {
			it.err = err
			it.eof = true
			return nil, err
		}
		switch result {
		case stepEOF:
			it.eof = true
			return nil, io.EOF
		case stepSkip:
			if it.current != nil {
				if ferr := it.finishCurrent(); ferr != nil {
					it.err = ferr
					it.eof = true
					return nil, ferr
				}
			}
			continue
		case stepHasNext:
			return rec, nil
		}
	}
}

// step runs one full boundary-to-record pass, or reports skip_next /
// terminal EOF.
func (it *ArchiveIterator) step() (*Record, stepResult, error) {
	statusLine, result, err := it.seekBoundary()
	if err != nil {
		return nil, stepEOF, err
	}
	if result != stepHasNext {
		return nil, result, nil
	}

	headers, result, err := it.readHeaders(statusLine)
	if err != nil {
		return nil, stepEOF, err
	}
	if result != stepHasNext {
		return nil, stepSkip, nil
	}

	rec, err := it.buildRecord(headers)
	if err != nil {
		it.log.WithError(err).Warn("skipping record with malformed headers")
		return nil, stepSkip, nil
	}

	if !it.opts.typeFilter.Has(rec.Type()) {
		it.current = rec.reader.(*BoundedReader)
		return nil, stepSkip, nil
	}

	it.current = rec.reader.(*BoundedReader)
	if it.opts.parseHTTP && rec.IsHTTP() {
		if perr := rec.ParseHTTP(); perr != nil {
			it.log.WithError(perr).Warn("failed to parse embedded HTTP headers")
		}
	}
	return rec, stepHasNext, nil
}

// seekBoundary consumes blank lines and resynchronises past malformed
// bytes until it finds a line beginning with "WARC/", returning it as the
// record's status line.
func (it *ArchiveIterator) seekBoundary() (string, stepResult, error) {
	for {
		line, err := it.br.ReadLine()
		if err != nil && err != io.EOF {
			return "", stepEOF, newIOFailureError(err)
		}
		trimmed := strings.TrimRight(string(line), "\r\n")

		if trimmed == "" {
			if err == io.EOF {
				return "", stepEOF, nil
			}
			continue
		}

		if strings.HasPrefix(trimmed, boundaryMarker) {
			return trimmed, stepHasNext, nil
		}

		if err == io.EOF {
			return "", stepEOF, nil
		}

		it.log.Warn("resynchronising past malformed record boundary")
		found, rerr := it.resyncToMarker()
		if rerr != nil {
			return "", stepEOF, rerr
		}
		if !found {
			return "", stepEOF, nil
		}
		rest, err2 := it.br.ReadLine()
		if err2 != nil && err2 != io.EOF {
			return "", stepEOF, newIOFailureError(err2)
		}
		return boundaryMarker + strings.TrimRight(string(rest), "\r\n"), stepHasNext, nil
	}
}

// resyncToMarker discards bytes one at a time until the stream's next
// bytes are "WARC/", or EOF is reached first.
func (it *ArchiveIterator) resyncToMarker() (bool, error) {
	window := make([]byte, 0, len(boundaryMarker))
	for {
		b, err := it.br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return false, nil
			}
			return false, newIOFailureError(err)
		}
		if len(window) == len(boundaryMarker) {
			copy(window, window[1:])
			window = window[:len(boundaryMarker)-1]
		}
		window = append(window, b)
		if string(window) == boundaryMarker {
			return true, nil
		}
	}
}

// readHeaders consumes header lines following statusLine until a blank
// line, folding continuations and rejecting lines with no colon.
func (it *ArchiveIterator) readHeaders(statusLine string) (*HeaderMap, stepResult, error) {
	headers := NewHeaderMap(statusLine)
	var total int64

	for {
		line, err := it.br.ReadLine()
		if err != nil && err != io.EOF {
			return nil, stepEOF, newIOFailureError(err)
		}
		total += int64(len(line))
		if total > it.opts.maxHeaderSize {
			return nil, stepSkip, nil
		}

		trimmed := strings.TrimRight(string(line), "\r\n")
		if trimmed == "" {
			return headers, stepHasNext, nil
		}
		if err == io.EOF {
			// stream ended mid-header-block; no usable record here
			return nil, stepEOF, nil
		}

		if line[0] == ' ' || line[0] == '\t' {
			headers.AddContinuation(trimmed)
			continue
		}

		i := strings.IndexByte(trimmed, ':')
		if i < 0 {
			return nil, stepSkip, nil
		}
		name := trimmed[:i]
		value := strings.TrimSpace(trimmed[i+1:])
		if aerr := headers.Append(name, value); aerr != nil {
			return nil, stepSkip, nil
		}
	}
}

// buildRecord validates Content-Length and installs a BoundedReader sized
// to it, optionally tee'd into a DigestEngine for eager verification.
func (it *ArchiveIterator) buildRecord(headers *HeaderMap) (*Record, error) {
	rec, err := newRecordFromHeaders(headers, nil)
	if err != nil {
		return nil, err
	}

	var tee io.Writer
	if it.opts.verifyDigests {
		engine := NewDigestEngine()
		rec.eagerBlockEngine = engine
		tee = engine
	}
	bounded := newBoundedReader(it.br, rec.contentLength, tee)
	rec.reader = bounded
	return rec, nil
}

// finishCurrent drains whatever remains of the current record's block and
// discards the mandatory two-CRLF terminator, positioning the stream
// exactly at the next record's boundary (or EOF, tolerated here).
func (it *ArchiveIterator) finishCurrent() error {
	if it.current == nil {
		return nil
	}
	if _, err := it.current.drain(); err != nil {
		var short *UnexpectedEOFError
		if !errors.As(err, &short) {
			return newIOFailureError(err)
		}
		// the stream ended inside the record's block: the next
		// seekBoundary sees EOF and iteration ends cleanly
		it.log.Warn("stream truncated mid-record; ending iteration")
	}
	it.current = nil

	for i := 0; i < 2; i++ {
		line, err := it.br.ReadLine()
		if err != nil && err != io.EOF {
			return newIOFailureError(err)
		}
		if err == io.EOF {
			break
		}
		_ = line
	}
	return nil
}
