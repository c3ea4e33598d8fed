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

/*
Package warc is a streaming reader and writer for the Web ARChive (WARC)
format.

# WARC

A WARC stream is a concatenation of self-framed records: a version line, a
header block, a blank line and a payload of declared length, followed by a
two-CRLF terminator. See
https://iipc.github.io/warc-specifications/specifications/warc-format/warc-1.1/.

# Reading

An [ArchiveIterator] walks a [BufferedReader] record by record, producing a
[Record] for each entry that survives the record type filter. A Record's
payload is exposed through a [BoundedReader] sized to Content-Length; the
iterator drains any unread payload when advancing to the next record.

# Writing

Build a Record for writing with [NewRecord], populate it with [Record.InitHeaders]
and [Record.SetBytesContent], then call [Record.Write] to serialize it,
optionally computing and injecting block/payload digests as it streams.

# Files

[WarcFileReader] and [WarcFileWriter] wrap the core reader/writer around a
rotating, optionally gzip-compressed file on disk, the way WARC files are
normally stored and served.
*/
package warc
