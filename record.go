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
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nlnwa/whatwg-url/url"
)

// timestampLayout is the ISO-8601 form WARC-Date uses: UTC, one-second
// resolution, trailing Z.
const timestampLayout = "2006-01-02T15:04:05Z"

// Record is the in-memory view of one archive entry: its WARC headers, a
// content-length bound, a reader positioned at the start of its block, and
// (on request) the parsed inner HTTP header section.
//
// A Record produced by an ArchiveIterator is owned by at most one iterator
// step: advancing the iterator invalidates its reader. A Record built for
// writing (InitHeaders/SetBytesContent) has no such lifetime and can be
// written any number of times.
type Record struct {
	recordType    RecordType
	headers       *HeaderMap
	isHTTP        bool
	httpParsed    bool
	httpHeaders   *HeaderMap
	contentLength int64
	reader        io.Reader

	// eagerBlockEngine is set by an ArchiveIterator built with
	// WithDigestVerification: it tees every byte read off reader, by
	// whoever reads it (caller or ParseHTTP), so VerifyBlockDigest can
	// compare without a second, destructive pass.
	eagerBlockEngine *DigestEngine
}

// NewRecord returns an empty Record ready for InitHeaders.
func NewRecord() *Record {
	return &Record{recordType: Unknown}
}

// newRecordFromHeaders builds a Record from an already-parsed HeaderMap and
// a reader positioned at the start of the block: derive record_type from
// WARC-Type, content_length from Content-Length (a MalformedHeaderError if
// absent or non-numeric), and is_http from Content-Type.
func newRecordFromHeaders(headers *HeaderMap, reader io.Reader) (*Record, error) {
	clField := headers.Get("Content-Length")
	if clField == "" {
		return nil, newMalformedHeaderError("missing Content-Length")
	}
	contentLength, err := strconv.ParseInt(strings.TrimSpace(clField), 10, 64)
	if err != nil || contentLength < 0 {
		return nil, newMalformedHeaderError("non-numeric Content-Length: " + clField)
	}
	ct := strings.ToLower(headers.Get("Content-Type"))
	return &Record{
		recordType:    ParseRecordType(headers.Get("WARC-Type")),
		headers:       headers,
		isHTTP:        strings.HasPrefix(ct, "application/http"),
		contentLength: contentLength,
		reader:        reader,
	}, nil
}

// InitHeaders fills the canonical WARC-Type / WARC-Record-ID / WARC-Date /
// Content-Length header set. recordURN, if non-empty, is used verbatim as
// WARC-Record-ID; otherwise a fresh "urn:uuid:" value is generated.
func (r *Record) InitHeaders(contentLength int64, recordType RecordType, recordURN string) error {
	if recordType == NoType {
		recordType = Unknown
	}
	if recordURN == "" {
		recordURN = "urn:uuid:" + uuid.New().String()
	}
	r.headers = NewHeaderMap("WARC/1.1")
	r.recordType = recordType
	r.contentLength = contentLength
	if err := r.headers.Set("WARC-Type", recordType.String()); err != nil {
		return err
	}
	if err := r.headers.Set("WARC-Record-ID", "<"+recordURN+">"); err != nil {
		return err
	}
	if err := r.headers.Set("WARC-Date", time.Now().UTC().Format(timestampLayout)); err != nil {
		return err
	}
	return r.headers.Set("Content-Length", strconv.FormatInt(contentLength, 10))
}

// SetBytesContent attaches an in-memory payload as the record's reader and
// updates Content-Length to match.
func (r *Record) SetBytesContent(b []byte) error {
	r.reader = bytes.NewReader(b)
	r.contentLength = int64(len(b))
	if r.headers == nil {
		r.headers = NewHeaderMap("WARC/1.1")
	}
	ct := strings.ToLower(r.headers.Get("Content-Type"))
	r.isHTTP = strings.HasPrefix(ct, "application/http")
	return r.headers.Set("Content-Length", strconv.FormatInt(r.contentLength, 10))
}

// Type returns the record's WARC-Type, as derived at parse time or set by
// InitHeaders.
func (r *Record) Type() RecordType { return r.recordType }

// Headers returns the record's WARC headers.
func (r *Record) Headers() *HeaderMap { return r.headers }

// ContentLength returns the declared block length.
func (r *Record) ContentLength() int64 { return r.contentLength }

// IsHTTP reports whether Content-Type begins with "application/http".
func (r *Record) IsHTTP() bool { return r.isHTTP }

// HTTPHeaders returns the parsed inner HTTP headers, or nil if ParseHTTP
// has not yet been called.
func (r *Record) HTTPHeaders() *HeaderMap { return r.httpHeaders }

// Reader returns the record's current payload reader. Before ParseHTTP it
// yields the full block; after, it yields only the HTTP entity body.
func (r *Record) Reader() io.Reader { return r.reader }

// ParseHTTP parses a leading HTTP status/request line and header block off
// the record's payload reader, storing them in HTTPHeaders and leaving
// Reader positioned at the start of the entity body. It is a no-op on a
// second call, and a UsageError on a record that isn't HTTP-bearing.
func (r *Record) ParseHTTP() error {
	if !r.isHTTP {
		return newUsageError("parse_http called on a record whose Content-Type is not application/http")
	}
	if r.httpParsed {
		return nil
	}
	headers, body, err := parseHTTPHeaderBlock(r.reader)
	if err != nil {
		return err
	}
	r.httpHeaders = headers
	r.reader = body
	r.httpParsed = true
	return nil
}

// VerifyBlockDigest reads whatever remains of the record's block through a
// DigestEngine and compares it against WARC-Block-Digest. Without an eager
// engine that is a fresh engine, so only the unread part of the block is
// hashed; with one (WithDigestVerification), the remainder is added to the
// bytes already teed into it. A missing header, or an unreadable block,
// yields false: this is a boolean result, never an error, and it consumes
// the reader.
func (r *Record) VerifyBlockDigest() bool {
	field := r.headers.Get("WARC-Block-Digest")
	if field == "" {
		return false
	}
	if r.eagerBlockEngine != nil {
		if r.reader != nil {
			if _, err := io.Copy(io.Discard, r.reader); err != nil {
				return false
			}
		}
		return verifyDigestField(field, r.eagerBlockEngine)
	}
	if r.reader == nil {
		return false
	}
	engine := NewDigestEngine()
	if _, err := io.Copy(engine, r.reader); err != nil {
		return false
	}
	return verifyDigestField(field, engine)
}

// VerifyPayloadDigest parses the HTTP header block if needed, then hashes
// only the entity body and compares it against WARC-Payload-Digest. It
// returns false for a non-HTTP record, a missing header, or a parse
// failure. It consumes the reader.
func (r *Record) VerifyPayloadDigest() bool {
	if !r.isHTTP {
		return false
	}
	if err := r.ParseHTTP(); err != nil {
		return false
	}
	field := r.headers.Get("WARC-Payload-Digest")
	if field == "" || r.reader == nil {
		return false
	}
	engine := NewDigestEngine()
	if _, err := io.Copy(engine, r.reader); err != nil {
		return false
	}
	return verifyDigestField(field, engine)
}

// payloadBytes materialises the full remaining payload in memory and
// resets r.reader to a fresh, re-readable view over it. Write needs the
// complete bytes up front in order to compute digests before the headers
// (which carry those digests) are serialised.
func (r *Record) payloadBytes() ([]byte, error) {
	if br, ok := r.reader.(*bytes.Reader); ok {
		data := make([]byte, br.Size())
		if _, err := br.ReadAt(data, 0); err != nil && err != io.EOF {
			return nil, newIOFailureError(err)
		}
		if _, err := br.Seek(0, io.SeekStart); err != nil {
			return nil, newIOFailureError(err)
		}
		return data, nil
	}
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, newIOFailureError(err)
	}
	r.reader = bytes.NewReader(data)
	return data, nil
}

// Write serialises the complete record (headers, blank line, payload, then
// the two-CRLF terminator) to out, returning the total byte count. With
// WithChecksumOnWrite(true) (off by default), it computes WARC-Block-Digest (and,
// for HTTP-bearing records, WARC-Payload-Digest) before writing the
// headers.
func (r *Record) Write(out io.Writer, opts ...RecordOption) (int64, error) {
	if r.reader == nil || r.headers == nil {
		return 0, newUsageError("write called on a record with no payload attached")
	}
	o := defaultRecordOptions()
	for _, opt := range opts {
		opt.applyRecord(o)
	}

	if o.strictURIs {
		if err := validateTargetURIs(r.headers); err != nil {
			return 0, err
		}
	}

	payload, err := r.payloadBytes()
	if err != nil {
		return 0, err
	}

	if o.checksumData {
		blockEngine := NewDigestEngine()
		blockEngine.Update(payload)
		if err := r.headers.Set("WARC-Block-Digest", blockEngine.Format()); err != nil {
			return 0, err
		}
		if r.isHTTP {
			if bodyOffset, err := httpBodyOffset(payload); err == nil {
				payloadEngine := NewDigestEngine()
				payloadEngine.Update(payload[bodyOffset:])
				if err := r.headers.Set("WARC-Payload-Digest", payloadEngine.Format()); err != nil {
					return 0, err
				}
			}
		}
	}

	var total int64

	n, err := r.headers.Write(out)
	total += n
	if err != nil {
		return total, newIOFailureError(err)
	}

	nn, err := io.WriteString(out, "\r\n")
	total += int64(nn)
	if err != nil {
		return total, newIOFailureError(err)
	}

	chunk := o.chunkSize
	for offset := 0; offset < len(payload); offset += chunk {
		end := offset + chunk
		if end > len(payload) {
			end = len(payload)
		}
		wn, err := out.Write(payload[offset:end])
		total += int64(wn)
		if err != nil {
			return total, newIOFailureError(err)
		}
	}

	nn, err = io.WriteString(out, "\r\n\r\n")
	total += int64(nn)
	if err != nil {
		return total, newIOFailureError(err)
	}

	return total, nil
}

// validateTargetURIs parses WARC-Target-URI and WARC-Refers-To-Target-URI,
// when present: any value that whatwg-url can't parse is a
// MalformedHeaderError.
func validateTargetURIs(headers *HeaderMap) error {
	for _, name := range [...]string{"WARC-Target-URI", "WARC-Refers-To-Target-URI"} {
		value := headers.Get(name)
		if value == "" {
			continue
		}
		if _, err := url.Parse(value); err != nil {
			return newMalformedHeaderError(name + ": " + err.Error())
		}
	}
	return nil
}
