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
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1: a single warcinfo record with no digest header present; iterating
// past it yields a clean io.EOF with no error.
func TestArchiveIterator_SingleWarcinfoRecord(t *testing.T) {
	raw := "WARC/1.1\r\n" +
		"WARC-Type: warcinfo\r\n" +
		"WARC-Record-ID: <urn:uuid:11111111-1111-1111-1111-111111111111>\r\n" +
		"WARC-Date: 2021-01-01T00:00:00Z\r\n" +
		"Content-Length: 5\r\n" +
		"\r\n" +
		"hello" +
		"\r\n\r\n"

	it := NewArchiveIterator(strings.NewReader(raw), WithHTTPParsing(false))

	rec, err := it.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, Warcinfo, rec.Type())
	body, err := io.ReadAll(rec.Reader())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)

	// EOF is sticky.
	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

// S2: a resource record carrying a precomputed, verifiable WARC-Block-Digest.
// Verification after reading requires WithDigestVerification so the
// iterator tees the bytes the caller consumes into the digest engine.
func TestArchiveIterator_PrecomputedBlockDigestVerifies(t *testing.T) {
	raw := "WARC/1.1\r\n" +
		"WARC-Type: resource\r\n" +
		"WARC-Record-ID: <urn:uuid:22222222-2222-2222-2222-222222222222>\r\n" +
		"WARC-Block-Digest: sha1:PZNRASNEWVBLLM6OBS3EDPQCWIRCBCW5\r\n" +
		"Content-Length: 11\r\n" +
		"\r\n" +
		"payload-two" +
		"\r\n\r\n"

	it := NewArchiveIterator(strings.NewReader(raw), WithHTTPParsing(false), WithDigestVerification(true))

	rec, err := it.Next()
	require.NoError(t, err)
	body, err := io.ReadAll(rec.Reader())
	require.NoError(t, err)
	assert.Equal(t, "payload-two", string(body))
	assert.True(t, rec.VerifyBlockDigest())

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

// S3: two concatenated records are emitted in stream order.
func TestArchiveIterator_TwoConcatenatedRecordsOrdering(t *testing.T) {
	raw := "WARC/1.1\r\n" +
		"WARC-Type: warcinfo\r\n" +
		"Content-Length: 5\r\n" +
		"\r\n" +
		"first" +
		"\r\n\r\n" +
		"WARC/1.1\r\n" +
		"WARC-Type: resource\r\n" +
		"Content-Length: 6\r\n" +
		"\r\n" +
		"second" +
		"\r\n\r\n"

	it := NewArchiveIterator(strings.NewReader(raw), WithHTTPParsing(false))

	first, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, Warcinfo, first.Type())

	second, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, Resource, second.Type())
	body, err := io.ReadAll(second.Reader())
	require.NoError(t, err)
	assert.Equal(t, "second", string(body))

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

// S4: a corrupted header line (no colon, not a continuation) causes that
// record to be skipped; with nothing salvageable after it the iterator
// terminates cleanly at io.EOF rather than surfacing an error.
func TestArchiveIterator_CorruptedHeaderLineSkipsToEOF(t *testing.T) {
	raw := "WARC/1.1\r\n" +
		"NotAHeaderLine\r\n" +
		"\r\n"

	it := NewArchiveIterator(strings.NewReader(raw))
	_, err := it.Next()
	assert.Equal(t, io.EOF, err)
}

// S5: an HTTP-bearing response record, parsed eagerly (the default), whose
// WARC-Payload-Digest verifies against the entity body alone.
func TestArchiveIterator_HTTPResponsePayloadDigestVerifies(t *testing.T) {
	httpBlock := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\nbody data"
	raw := "WARC/1.1\r\n" +
		"WARC-Type: response\r\n" +
		"Content-Type: application/http; msgtype=response\r\n" +
		"WARC-Payload-Digest: sha1:DMFS62JDSJ7NDKJF2JHN7RCC4SWEWW2I\r\n" +
		"Content-Length: 54\r\n" +
		"\r\n" +
		httpBlock +
		"\r\n\r\n"

	it := NewArchiveIterator(strings.NewReader(raw))

	rec, err := it.Next()
	require.NoError(t, err)
	assert.True(t, rec.IsHTTP())
	require.NotNil(t, rec.HTTPHeaders())
	assert.Equal(t, "text/plain", rec.HTTPHeaders().Get("Content-Type"))
	assert.True(t, rec.VerifyPayloadDigest())
}

// S6: a stream truncated mid-record still yields every complete record
// that precedes the truncation. The truncated record itself is handed
// back (its header block was well-formed) but reading its declared
// content_length past the actual end of stream surfaces an error.
func TestArchiveIterator_TruncatedStreamYieldsCompleteRecordsThenEOF(t *testing.T) {
	raw := "WARC/1.1\r\n" +
		"WARC-Type: warcinfo\r\n" +
		"Content-Length: 5\r\n" +
		"\r\n" +
		"first" +
		"\r\n\r\n" +
		"WARC/1.1\r\n" +
		"WARC-Type: resource\r\n" +
		"Content-Length: 100\r\n" +
		"\r\n" +
		"not enough bytes"

	it := NewArchiveIterator(strings.NewReader(raw), WithHTTPParsing(false))

	first, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, Warcinfo, first.Type())
	_, err = io.ReadAll(first.Reader())
	require.NoError(t, err)

	second, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, Resource, second.Type())

	_, err = io.ReadAll(second.Reader())
	assert.Error(t, err)

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

// Property #7: a type filter admits only the requested record types,
// skipping the rest transparently.
func TestArchiveIterator_TypeFilter(t *testing.T) {
	raw := "WARC/1.1\r\n" +
		"WARC-Type: warcinfo\r\n" +
		"Content-Length: 5\r\n" +
		"\r\n" +
		"first" +
		"\r\n\r\n" +
		"WARC/1.1\r\n" +
		"WARC-Type: resource\r\n" +
		"Content-Length: 6\r\n" +
		"\r\n" +
		"second" +
		"\r\n\r\n"

	it := NewArchiveIterator(strings.NewReader(raw), WithTypeFilter(Resource), WithHTTPParsing(false))

	rec, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, Resource, rec.Type())

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

// Property #5: garbage bytes between two well-formed records are skipped by
// resynchronising to the next "WARC/" marker rather than aborting.
func TestArchiveIterator_ResyncsPastGarbageBetweenRecords(t *testing.T) {
	raw := "WARC/1.1\r\n" +
		"WARC-Type: warcinfo\r\n" +
		"Content-Length: 5\r\n" +
		"\r\n" +
		"first" +
		"\r\n\r\n" +
		"garbage-not-a-record-boundary\n" +
		"WARC/1.1\r\n" +
		"WARC-Type: resource\r\n" +
		"Content-Length: 6\r\n" +
		"\r\n" +
		"second" +
		"\r\n\r\n"

	it := NewArchiveIterator(strings.NewReader(raw), WithHTTPParsing(false))

	first, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, Warcinfo, first.Type())

	second, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, Resource, second.Type())
	body, err := io.ReadAll(second.Reader())
	require.NoError(t, err)
	assert.Equal(t, "second", string(body))

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}
