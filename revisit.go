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

// Revisit profiles, as registered by the WARC 1.1 specification.
const (
	ProfileIdenticalPayloadDigest = "http://netpreserve.org/warc/1.1/revisit/identical-payload-digest"
	ProfileServerNotModified      = "http://netpreserve.org/warc/1.1/revisit/server-not-modified"
)

// RevisitRef identifies the earlier record a revisit record refers to,
// carried as WARC-Profile / WARC-Refers-To / WARC-Refers-To-Target-URI /
// WARC-Refers-To-Date.
type RevisitRef struct {
	Profile        string
	TargetRecordID string
	TargetURI      string
	TargetDate     string
}

// CreateRevisitRef builds a RevisitRef for the common identical-payload-
// digest case: targetRecordID is the referenced record's WARC-Record-ID
// (without the enclosing angle brackets), targetURI and targetDate are its
// WARC-Target-URI and WARC-Date.
func CreateRevisitRef(targetRecordID, targetURI, targetDate string) *RevisitRef {
	return &RevisitRef{
		Profile:        ProfileIdenticalPayloadDigest,
		TargetRecordID: targetRecordID,
		TargetURI:      targetURI,
		TargetDate:     targetDate,
	}
}

// ToRevisitRef rewrites r in place into a revisit record carrying ref,
// setting WARC-Type and the WARC-Refers-To* fields. It does not touch the
// payload; callers typically pair it with SetBytesContent(nil) or a short
// explanatory block.
func (r *Record) ToRevisitRef(ref *RevisitRef) error {
	if r.headers == nil {
		return newUsageError("to_revisit_ref called before init_headers")
	}
	r.recordType = Revisit
	if err := r.headers.Set("WARC-Type", Revisit.String()); err != nil {
		return err
	}
	if ref.Profile != "" {
		if err := r.headers.Set("WARC-Profile", ref.Profile); err != nil {
			return err
		}
	}
	if ref.TargetRecordID != "" {
		if err := r.headers.Set("WARC-Refers-To", "<"+ref.TargetRecordID+">"); err != nil {
			return err
		}
	}
	if ref.TargetURI != "" {
		if err := r.headers.Set("WARC-Refers-To-Target-URI", ref.TargetURI); err != nil {
			return err
		}
	}
	if ref.TargetDate != "" {
		if err := r.headers.Set("WARC-Refers-To-Date", ref.TargetDate); err != nil {
			return err
		}
	}
	return nil
}

// RevisitRef extracts the revisit reference from a parsed revisit record,
// or nil if r is not a revisit record.
func (r *Record) RevisitRef() *RevisitRef {
	if r.recordType != Revisit || r.headers == nil {
		return nil
	}
	refersTo := r.headers.Get("WARC-Refers-To")
	trimmed := refersTo
	if len(trimmed) >= 2 && trimmed[0] == '<' && trimmed[len(trimmed)-1] == '>' {
		trimmed = trimmed[1 : len(trimmed)-1]
	}
	return &RevisitRef{
		Profile:        r.headers.Get("WARC-Profile"),
		TargetRecordID: trimmed,
		TargetURI:      r.headers.Get("WARC-Refers-To-Target-URI"),
		TargetDate:     r.headers.Get("WARC-Refers-To-Date"),
	}
}
