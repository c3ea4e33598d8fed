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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderMap_SetAndGet(t *testing.T) {
	h := NewHeaderMap("WARC/1.1")
	require.NoError(t, h.Set("WARC-Type", "response"))
	assert.Equal(t, "response", h.Get("WARC-Type"))
	assert.Equal(t, "response", h.Get("warc-type"))
	assert.Equal(t, "", h.Get("Missing"))

	require.NoError(t, h.Set("WARC-Type", "resource"))
	assert.Equal(t, "resource", h.Get("WARC-Type"))
	assert.Len(t, h.Fields(), 1)
}

func TestHeaderMap_AppendPreservesDuplicatesAndOrder(t *testing.T) {
	h := NewHeaderMap("WARC/1.1")
	require.NoError(t, h.Append("WARC-Concurrent-To", "<urn:uuid:aaa>"))
	require.NoError(t, h.Append("WARC-Concurrent-To", "<urn:uuid:bbb>"))

	assert.Equal(t, []string{"<urn:uuid:aaa>", "<urn:uuid:bbb>"}, h.GetAll("WARC-Concurrent-To"))
	assert.Equal(t, "<urn:uuid:aaa>", h.Get("WARC-Concurrent-To"))
}

func TestHeaderMap_AddContinuation(t *testing.T) {
	h := NewHeaderMap("WARC/1.1")
	require.NoError(t, h.Append("X-Foo", "a"))
	h.AddContinuation("b")
	assert.Equal(t, "a b", h.Get("X-Foo"))
}

func TestHeaderMap_AddContinuationOnEmptyMapIsDropped(t *testing.T) {
	h := NewHeaderMap("WARC/1.1")
	h.AddContinuation("stray")
	assert.Empty(t, h.Fields())
}

func TestHeaderMap_Delete(t *testing.T) {
	h := NewHeaderMap("WARC/1.1")
	require.NoError(t, h.Set("A", "1"))
	require.NoError(t, h.Set("B", "2"))
	h.Delete("a")
	assert.False(t, h.Has("A"))
	assert.True(t, h.Has("B"))
}

func TestHeaderMap_SetRejectsBareCROrLF(t *testing.T) {
	h := NewHeaderMap("WARC/1.1")
	assert.Error(t, h.Set("X-Foo", "bar\r\ninjected"))
	assert.Error(t, h.Set("", "value"))
}

func TestHeaderMap_WriteRoundTrip(t *testing.T) {
	h := NewHeaderMap("WARC/1.1")
	require.NoError(t, h.Set("WARC-Type", "response"))
	require.NoError(t, h.Set("Content-Length", "13"))

	var buf bytes.Buffer
	n, err := h.Write(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "WARC/1.1\r\nWARC-Type: response\r\nContent-Length: 13\r\n", buf.String())

	parsed := parseHeaderBlockForTest(t, buf.String()+"\r\n")
	assert.Equal(t, h.StatusLine(), parsed.StatusLine())
	assert.Equal(t, h.Fields(), parsed.Fields())
}

func TestHeaderMap_Clear(t *testing.T) {
	h := NewHeaderMap("WARC/1.1")
	require.NoError(t, h.Set("A", "1"))
	h.Clear()
	assert.Equal(t, "", h.StatusLine())
	assert.Empty(t, h.Fields())
	assert.False(t, h.Has("A"))
}

// parseHeaderBlockForTest re-parses a raw "status\r\nname: value\r\n..."
// block the same way ArchiveIterator.readHeaders does, for round-trip
// assertions without spinning up a full iterator.
func parseHeaderBlockForTest(t *testing.T, raw string) *HeaderMap {
	t.Helper()
	it := &ArchiveIterator{br: NewBufferedReader(bytes.NewBufferString(raw)), opts: defaultIteratorOptions(), log: logger.WithField("test", true)}
	statusLine, result, err := it.seekBoundary()
	require.NoError(t, err)
	require.Equal(t, stepHasNext, result)
	headers, result, err := it.readHeaders(statusLine)
	require.NoError(t, err)
	require.Equal(t, stepHasNext, result)
	return headers
}
