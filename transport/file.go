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

import (
	"compress/gzip"
	"os"
)

// File is an IOStream over *os.File. When opened with gzip framing it
// transparently decompresses on read (compress/gzip's reader handles a
// concatenated sequence of gzip members, the ".warc.gz" convention of one
// member per record, exactly like a single continuous stream) and
// compresses on write through a single ongoing gzip.Writer. Callers
// wanting one independent gzip member per record should close and
// recreate the writer between records rather than relying on this binding
// directly.
type File struct {
	f        *os.File
	gzr      *gzip.Reader
	gzw      *gzip.Writer
	compress bool
}

// OpenFileReader opens path for reading, transparently decompressing if
// compress is true.
func OpenFileReader(path string, compress bool) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	t := &File{f: f, compress: compress}
	if compress {
		gzr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		t.gzr = gzr
	}
	return t, nil
}

// CreateFileWriter creates (or truncates) path for writing, compressing on
// the fly if compress is true.
func CreateFileWriter(path string, compress bool) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o666)
	if err != nil {
		return nil, err
	}
	t := &File{f: f, compress: compress}
	if compress {
		t.gzw = gzip.NewWriter(f)
	}
	return t, nil
}

func (t *File) Read(p []byte) (int, error) {
	if t.gzr != nil {
		return t.gzr.Read(p)
	}
	return t.f.Read(p)
}

func (t *File) Write(p []byte) (int, error) {
	if t.gzw != nil {
		return t.gzw.Write(p)
	}
	return t.f.Write(p)
}

// Close flushes any pending gzip writer state and closes the underlying
// file.
func (t *File) Close() error {
	if t.gzw != nil {
		if err := t.gzw.Close(); err != nil {
			_ = t.f.Close()
			return err
		}
	}
	if t.gzr != nil {
		_ = t.gzr.Close()
	}
	return t.f.Close()
}
