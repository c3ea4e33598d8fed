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
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/tsdb/fileutil"
	"github.com/sirupsen/logrus"
)

// WarcFileNameGenerator produces a (directory, filename) pair for each new
// WARC file a WarcFileWriter opens.
type WarcFileNameGenerator interface {
	NewWarcFileName() (dir string, name string)
}

// PatternNameGenerator is the default WarcFileNameGenerator: names follow
// "<prefix><timestamp>-<serial>.warc", with Serial incremented atomically
// so concurrent writers never collide.
type PatternNameGenerator struct {
	Directory string
	Prefix    string
	Serial    int32
}

func (g *PatternNameGenerator) NewWarcFileName() (string, string) {
	serial := atomic.AddInt32(&g.Serial, 1)
	ts := time.Now().UTC().Format("20060102150405")
	name := fmt.Sprintf("%s%s-%04d.warc", g.Prefix, ts, serial)
	return g.Directory, name
}

// warcFileWriterOptions holds WarcFileWriter configuration.
type warcFileWriterOptions struct {
	maxFileSize          int64
	compress             bool
	compressSuffix       string
	openFileSuffix       string
	nameGenerator        WarcFileNameGenerator
	flush                bool
	warcInfoFunc         func(*Record) error
	maxConcurrentWriters int
}

func defaultWarcFileWriterOptions() warcFileWriterOptions {
	return warcFileWriterOptions{
		maxFileSize:          1024 * 1024 * 1024,
		compress:             true,
		compressSuffix:       ".gz",
		openFileSuffix:       ".open",
		nameGenerator:        &PatternNameGenerator{},
		maxConcurrentWriters: 1,
	}
}

// WarcFileWriterOption configures a WarcFileWriter.
type WarcFileWriterOption interface {
	applyWarcFileWriter(*warcFileWriterOptions)
}

type funcWarcFileWriterOption func(*warcFileWriterOptions)

func (f funcWarcFileWriterOption) applyWarcFileWriter(o *warcFileWriterOptions) { f(o) }

// WithMaxFileSize sets the size at which the writer rotates to a new file:
// before a write, the file is rotated if its current size on disk
// (compressed, when compression is on) plus the record's Content-Length
// would exceed n. Defaults to 1 GiB.
func WithMaxFileSize(n int64) WarcFileWriterOption {
	return funcWarcFileWriterOption(func(o *warcFileWriterOptions) { o.maxFileSize = n })
}

// WithFileCompression enables or disables gzip compression for ".warc.gz"
// output: one gzip stream per file, flushed after every record. Defaults
// to true.
func WithFileCompression(enabled bool) WarcFileWriterOption {
	return funcWarcFileWriterOption(func(o *warcFileWriterOptions) { o.compress = enabled })
}

// WithFileFlush causes every record write to be followed by an fsync.
// Defaults to false.
func WithFileFlush(enabled bool) WarcFileWriterOption {
	return funcWarcFileWriterOption(func(o *warcFileWriterOptions) { o.flush = enabled })
}

// WithFileNameGenerator overrides the default PatternNameGenerator.
func WithFileNameGenerator(g WarcFileNameGenerator) WarcFileWriterOption {
	return funcWarcFileWriterOption(func(o *warcFileWriterOptions) { o.nameGenerator = g })
}

// WithWarcInfoFunc registers a callback invoked once per newly created
// file with a fresh warcinfo Record (WARC-Type, WARC-Record-ID, WARC-Date
// and Content-Type already populated); the callback attaches a body via
// SetBytesContent before the record is written.
func WithWarcInfoFunc(f func(*Record) error) WarcFileWriterOption {
	return funcWarcFileWriterOption(func(o *warcFileWriterOptions) { o.warcInfoFunc = f })
}

// WithMaxConcurrentWriters sets how many files the writer may have open
// and being written to at once. Write distributes records across this many
// independent file slots, so up to this many files can be mid-write
// concurrently. Defaults to one.
func WithMaxConcurrentWriters(n int) WarcFileWriterOption {
	return funcWarcFileWriterOption(func(o *warcFileWriterOptions) {
		if n > 0 {
			o.maxConcurrentWriters = n
		}
	})
}

// WarcFileWriter writes Records across one or more rotating files,
// optionally gzip-compressed, renaming each file atomically once closed so
// a reader never observes a partially named in-progress file.
//
// With WithMaxConcurrentWriters(n) for n > 1, Write distributes records
// round-robin across n independent file slots, each with its own rotation
// state, so concurrent callers can have up to n files open at once instead
// of serializing on a single file.
type WarcFileWriter struct {
	opts    warcFileWriterOptions
	writers []*singleFileWriter
	next    uint32

	log *logrus.Entry
}

// NewWarcFileWriter constructs a WarcFileWriter. The first record written
// to each file slot triggers creation of that slot's first file.
func NewWarcFileWriter(opts ...WarcFileWriterOption) *WarcFileWriter {
	o := defaultWarcFileWriterOptions()
	for _, opt := range opts {
		opt.applyWarcFileWriter(&o)
	}
	w := &WarcFileWriter{opts: o, log: logger.WithField("component", "warc_file_writer")}
	w.writers = make([]*singleFileWriter, o.maxConcurrentWriters)
	for i := range w.writers {
		w.writers[i] = &singleFileWriter{opts: &w.opts, log: w.log}
	}
	return w
}

// Write serialises record to one of the writer's file slots, chosen
// round-robin among the WithMaxConcurrentWriters slots, rotating that
// slot's file first if it would exceed the configured max size. Returns the
// byte offset the record was written at and the number of bytes written.
func (w *WarcFileWriter) Write(record *Record, opts ...RecordOption) (offset int64, n int64, err error) {
	idx := atomic.AddUint32(&w.next, 1) % uint32(len(w.writers))
	return w.writers[idx].write(record, opts...)
}

// Rotate closes every file currently being written to; the next Write to
// each slot opens a fresh one.
func (w *WarcFileWriter) Rotate() error {
	for _, sw := range w.writers {
		if err := sw.rotate(); err != nil {
			return err
		}
	}
	return nil
}

// Close rotates out every open file and releases all resources.
func (w *WarcFileWriter) Close() error {
	return w.Rotate()
}

// singleFileWriter owns one rotating file. It is driven by whichever
// goroutine currently holds mu, the way the core's per-file rotation
// worked before WithMaxConcurrentWriters split it into slots.
type singleFileWriter struct {
	opts *warcFileWriterOptions
	log  *logrus.Entry
	mu   sync.Mutex

	currentFile     *os.File
	currentFileName string
	currentFileSize int64
	currentGz       *gzip.Writer
}

func (sw *singleFileWriter) write(record *Record, opts ...RecordOption) (offset int64, n int64, err error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.currentFile != nil && sw.opts.maxFileSize > 0 &&
		sw.currentFileSize+record.ContentLength() > sw.opts.maxFileSize {
		if err := sw.rotateLocked(); err != nil {
			return 0, 0, err
		}
	}
	if sw.currentFile == nil {
		if err := sw.createFileLocked(); err != nil {
			return 0, 0, err
		}
	}

	offset, n, err = sw.writeToCurrentLocked(record, opts...)
	if err != nil {
		return offset, n, err
	}
	if sw.opts.flush {
		if err := sw.currentFile.Sync(); err != nil {
			return offset, n, newIOFailureError(err)
		}
	}
	return offset, n, nil
}

func (sw *singleFileWriter) createFileLocked() error {
	suffix := ""
	if sw.opts.compress {
		suffix = sw.opts.compressSuffix
	}
	dir, name := sw.opts.nameGenerator.NewWarcFileName()
	name += suffix
	path := name
	if dir != "" {
		path = strings.TrimSuffix(dir, "/") + "/" + name
	}

	file, err := os.OpenFile(path+sw.opts.openFileSuffix, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o666)
	if err != nil {
		return newIOFailureError(err)
	}
	sw.currentFile = file
	sw.currentFileName = name
	sw.currentFileSize = 0
	if sw.opts.compress {
		sw.currentGz = gzip.NewWriter(file)
	}

	if sw.opts.warcInfoFunc != nil {
		rec := NewRecord()
		if err := rec.InitHeaders(0, Warcinfo, ""); err != nil {
			return err
		}
		if err := rec.Headers().Set("Content-Type", "application/warc-fields"); err != nil {
			return err
		}
		if err := sw.opts.warcInfoFunc(rec); err != nil {
			return err
		}
		if rec.Reader() == nil {
			if err := rec.SetBytesContent(nil); err != nil {
				return err
			}
		}
		if _, _, err := sw.writeToCurrentLocked(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeToCurrentLocked writes rec to whichever target (plain file or its
// gzip wrapper) the current file uses, and refreshes currentFileSize.
// Caller must hold sw.mu and have an open currentFile.
func (sw *singleFileWriter) writeToCurrentLocked(rec *Record, opts ...RecordOption) (int64, int64, error) {
	offset := sw.currentFileSize
	var target io.Writer = sw.currentFile
	if sw.currentGz != nil {
		target = sw.currentGz
	}
	n, err := rec.Write(target, opts...)
	if err != nil {
		return offset, n, err
	}
	if sw.currentGz != nil {
		if err := sw.currentGz.Flush(); err != nil {
			return offset, n, newIOFailureError(err)
		}
	}
	fi, err := sw.currentFile.Stat()
	if err != nil {
		return offset, n, newIOFailureError(err)
	}
	sw.currentFileSize = fi.Size()
	return offset, n, nil
}

func (sw *singleFileWriter) rotate() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.rotateLocked()
}

func (sw *singleFileWriter) rotateLocked() error {
	if sw.currentFile == nil {
		return nil
	}
	if sw.currentGz != nil {
		if err := sw.currentGz.Close(); err != nil {
			return newIOFailureError(err)
		}
		sw.currentGz = nil
	}
	name := sw.currentFile.Name()
	if err := sw.currentFile.Close(); err != nil {
		return newIOFailureError(err)
	}
	sw.currentFile = nil
	finalName := strings.TrimSuffix(name, sw.opts.openFileSuffix)
	if err := fileutil.Rename(name, finalName); err != nil {
		return newIOFailureError(err)
	}
	sw.log.WithField("file", finalName).Debug("closed warc file")
	return nil
}
