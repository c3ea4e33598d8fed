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
	"compress/gzip"
	"io"
	"os"
)

// WarcFileReader opens a single ".warc" or ".warc.gz" file and exposes its
// records through an ArchiveIterator. Compression is detected from the
// file's gzip magic bytes, not its name, so a misnamed file still reads
// correctly.
type WarcFileReader struct {
	file     *os.File
	gzReader *gzip.Reader
	iter     *ArchiveIterator
}

// NewWarcFileReader opens filename and positions the reader at offset.
func NewWarcFileReader(filename string, offset int64, opts ...IteratorOption) (*WarcFileReader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, newIOFailureError(err)
	}
	if offset > 0 {
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			_ = file.Close()
			return nil, newIOFailureError(err)
		}
	}

	wf := &WarcFileReader{file: file}

	buffered := bufio.NewReaderSize(file, 4096)
	magic, err := buffered.Peek(2)
	var stream io.Reader = buffered
	if err == nil && len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, gerr := gzip.NewReader(buffered)
		if gerr != nil {
			_ = file.Close()
			return nil, newIOFailureError(gerr)
		}
		wf.gzReader = gz
		stream = gz
	}

	wf.iter = NewArchiveIterator(stream, opts...)
	return wf, nil
}

// Next returns the next Record in the file, or io.EOF once exhausted.
func (wf *WarcFileReader) Next() (*Record, error) {
	return wf.iter.Next()
}

// Close closes the underlying file (and gzip reader, if any).
func (wf *WarcFileReader) Close() error {
	if wf.gzReader != nil {
		_ = wf.gzReader.Close()
	}
	return wf.file.Close()
}
