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
	"bytes"
	"errors"
	"io"
	"strings"
)

// parseHTTPHeaderBlock reads a leading HTTP request or status line followed
// by a header block terminated by a blank line off r, the way Record's
// payload view composes: the returned reader yields exactly the entity
// body that follows, with nothing buffered or discarded beyond it.
func parseHTTPHeaderBlock(r io.Reader) (*HeaderMap, io.Reader, error) {
	br := bufio.NewReaderSize(r, 4096)

	statusLine, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, nil, newIOFailureError(err)
	}
	headers := NewHeaderMap(strings.TrimRight(statusLine, "\r\n"))

	for {
		line, rerr := br.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}
		switch {
		case line[0] == ' ' || line[0] == '\t':
			headers.AddContinuation(trimmed)
		case strings.IndexByte(trimmed, ':') >= 0:
			i := strings.IndexByte(trimmed, ':')
			if err := headers.Append(trimmed[:i], strings.TrimSpace(trimmed[i+1:])); err != nil {
				return nil, nil, err
			}
		default:
			return nil, nil, newMalformedHeaderError("HTTP header line missing colon: " + trimmed)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, nil, newIOFailureError(rerr)
		}
	}

	return headers, br, nil
}

// httpBodyOffset returns the byte offset of the HTTP entity body within a
// fully-buffered HTTP message, i.e. the index just past the first blank
// line. It is used by Record.Write to compute WARC-Payload-Digest without
// re-parsing through parseHTTPHeaderBlock's reader-consuming path.
func httpBodyOffset(payload []byte) (int, error) {
	if i := bytes.Index(payload, []byte("\r\n\r\n")); i >= 0 {
		return i + 4, nil
	}
	if i := bytes.Index(payload, []byte("\n\n")); i >= 0 {
		return i + 2, nil
	}
	return 0, errors.New("no HTTP header/body boundary found")
}
