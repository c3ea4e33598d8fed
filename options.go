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

// iteratorOptions holds the configuration an ArchiveIterator is built
// with. It is never exposed directly; callers set it through IteratorOption
// values passed to NewArchiveIterator.
type iteratorOptions struct {
	typeFilter    RecordType
	parseHTTP     bool
	maxHeaderSize int64
	verifyDigests bool
}

func defaultIteratorOptions() *iteratorOptions {
	return &iteratorOptions{
		typeFilter:    AnyType,
		parseHTTP:     true,
		maxHeaderSize: 1 << 20, // 1 MiB
		verifyDigests: false,
	}
}

// IteratorOption configures a NewArchiveIterator call.
type IteratorOption interface {
	applyIterator(*iteratorOptions)
}

type funcIteratorOption func(*iteratorOptions)

func (f funcIteratorOption) applyIterator(o *iteratorOptions) { f(o) }

// WithTypeFilter restricts Next to records whose type is admitted by
// filter, skipping all others internally. The default is AnyType.
func WithTypeFilter(filter RecordType) IteratorOption {
	return funcIteratorOption(func(o *iteratorOptions) {
		o.typeFilter = filter
	})
}

// WithHTTPParsing controls whether response/request records get their
// inner HTTP header block parsed eagerly as each record is produced. The
// default is true; pass false to skip the cost when callers only need raw
// payload bytes.
func WithHTTPParsing(enabled bool) IteratorOption {
	return funcIteratorOption(func(o *iteratorOptions) {
		o.parseHTTP = enabled
	})
}

// WithMaxHeaderSize bounds how many bytes READ_HEADERS will scan before
// giving up and skipping the record; no error reaches the caller. The
// default is 1 MiB.
func WithMaxHeaderSize(n int64) IteratorOption {
	return funcIteratorOption(func(o *iteratorOptions) {
		o.maxHeaderSize = n
	})
}

// WithDigestVerification tees every byte read off each emitted record's
// block, by the caller or by ParseHTTP, into a block DigestEngine kept on
// the Record, so VerifyBlockDigest still succeeds after the block has been
// read. VerifyPayloadDigest is not affected: it always hashes the unread
// entity body. The default is false: VerifyBlockDigest then hashes only
// what is still unread when it is called.
func WithDigestVerification(enabled bool) IteratorOption {
	return funcIteratorOption(func(o *iteratorOptions) {
		o.verifyDigests = enabled
	})
}

// recordOptions holds the configuration used when writing a record.
type recordOptions struct {
	chunkSize    int
	checksumData bool
	strictURIs   bool
}

func defaultRecordOptions() *recordOptions {
	return &recordOptions{
		chunkSize:    1 << 20, // 1 MiB
		checksumData: false,
		strictURIs:   false,
	}
}

// RecordOption configures a Record's Write call.
type RecordOption interface {
	applyRecord(*recordOptions)
}

type funcRecordOption func(*recordOptions)

func (f funcRecordOption) applyRecord(o *recordOptions) { f(o) }

// WithChunkSize sets the buffer size Write uses when copying payload
// bytes. The default is 1 MiB.
func WithChunkSize(n int) RecordOption {
	return funcRecordOption(func(o *recordOptions) {
		if n > 0 {
			o.chunkSize = n
		}
	})
}

// WithChecksumOnWrite controls whether Write computes and injects
// WARC-Block-Digest (and WARC-Payload-Digest, for HTTP-bearing records)
// headers before serializing. The default is false.
func WithChecksumOnWrite(enabled bool) RecordOption {
	return funcRecordOption(func(o *recordOptions) {
		o.checksumData = enabled
	})
}

// WithStrictURIs causes Write to reject a record whose WARC-Target-URI or
// WARC-Refers-To-Target-URI cannot be parsed as a URL. The default is
// false: validation only runs when the caller opts in.
func WithStrictURIs(enabled bool) RecordOption {
	return funcRecordOption(func(o *recordOptions) {
		o.strictURIs = enabled
	})
}
