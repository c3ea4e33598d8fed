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
	"crypto/sha1"
	"encoding/base32"
	"hash"
	"strings"
)

// sha1Algorithm is the only digest algorithm the reader recognises for
// verification: any other "algo:" prefix makes VerifyBlockDigest /
// VerifyPayloadDigest report false.
const sha1Algorithm = "sha1"

// DigestEngine computes a streaming digest over bytes passed to Update and
// renders it the way WARC expects: "sha1:" followed by uppercase, padded
// RFC 4648 base32.
type DigestEngine struct {
	algorithm string
	h         hash.Hash
}

// NewDigestEngine returns a DigestEngine computing SHA-1, the only
// algorithm gowarc-core writes or verifies.
func NewDigestEngine() *DigestEngine {
	return &DigestEngine{algorithm: sha1Algorithm, h: sha1.New()}
}

// Update feeds more bytes into the running hash. It never fails.
func (d *DigestEngine) Update(p []byte) {
	_, _ = d.h.Write(p)
}

// Write implements io.Writer so a DigestEngine can be used directly as an
// io.TeeReader/io.MultiWriter target.
func (d *DigestEngine) Write(p []byte) (int, error) {
	d.Update(p)
	return len(p), nil
}

// Finalize returns the raw digest bytes computed so far. It does not reset
// the underlying hash state.
func (d *DigestEngine) Finalize() []byte {
	return d.h.Sum(nil)
}

// Base32 returns the finalized digest as uppercase, padded RFC 4648
// base32.
func (d *DigestEngine) Base32() string {
	return base32.StdEncoding.EncodeToString(d.Finalize())
}

// Format returns the WARC header field value form: "sha1:<base32>".
func (d *DigestEngine) Format() string {
	return d.algorithm + ":" + d.Base32()
}

// splitDigestField splits a WARC-*-Digest header value of the form
// "algo:digest" into its two parts. A value with no colon is treated as a
// bare digest with no recognised algorithm.
func splitDigestField(field string) (algorithm, value string) {
	i := strings.IndexByte(field, ':')
	if i < 0 {
		return "", field
	}
	return strings.ToLower(field[:i]), field[i+1:]
}

// verifyDigestField compares a WARC-*-Digest header value against a
// DigestEngine's accumulated hash. The comparison is case-insensitive and
// padding-tolerant. An absent header, or an algorithm other than sha1,
// yields false: digest verification never returns an error, only a
// boolean.
func verifyDigestField(field string, engine *DigestEngine) bool {
	if field == "" {
		return false
	}
	algorithm, value := splitDigestField(field)
	if algorithm != sha1Algorithm {
		return false
	}
	return base32EqualFold(value, engine.Base32())
}

// base32EqualFold reports whether a and b represent the same base32 string
// once case and trailing '=' padding are normalised away.
func base32EqualFold(a, b string) bool {
	norm := func(s string) string {
		return strings.ToUpper(strings.TrimRight(s, "="))
	}
	return norm(a) == norm(b)
}
