/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fixmsg

import "github.com/pkg/errors"

// ErrEmptyMessage is returned by Parse when raw, after canonicalization,
// contains no recognizable tag=value field.
var ErrEmptyMessage = errors.New("fixmsg: no fields found in message")

// estimatedFieldCount is a rough per-message capacity hint for the field
// store; it only affects how many times the table grows, never correctness.
const estimatedFieldCount = 32

// Parse canonicalizes raw and walks it field by field, building a
// FixMessage. raw is not retained: field values are copied, so the caller
// may reuse or overwrite its buffer after Parse returns.
//
// A malformed field (missing '=', a non-numeric tag) is skipped: parsing
// resumes at the next SOH rather than failing the whole message,
// since one corrupt field in a captured log line should not discard an
// otherwise-readable message.
func Parse(raw []byte) (*FixMessage, error) {
	buf := Canonicalize(raw)
	msg := newFixMessage(estimatedFieldCount)

	i := 0
	n := len(buf)
	// Leading SOH/CR/LF are artifacts of log-line framing, not fields.
	for i < n && (buf[i] == SOH || buf[i] == '\r' || buf[i] == '\n') {
		i++
	}

	for i < n {
		fieldEnd := indexByteFrom(buf, i, SOH)
		if fieldEnd == -1 {
			fieldEnd = n
		}
		field := buf[i:fieldEnd]
		eq := indexByteFrom(field, 0, '=')
		if eq <= 0 {
			i = fieldEnd + 1
			continue
		}
		tag, ok := parseTag(field[:eq])
		if !ok {
			i = fieldEnd + 1
			continue
		}
		value := make([]byte, len(field)-eq-1)
		copy(value, field[eq+1:])
		if err := msg.set(tag, value); err != nil {
			i = fieldEnd + 1
			continue
		}
		i = fieldEnd + 1
	}

	if msg.Len() == 0 {
		return nil, ErrEmptyMessage
	}
	return msg, nil
}

func indexByteFrom(b []byte, from int, c byte) int {
	for i := from; i < len(b); i++ {
		if b[i] == c {
			return i
		}
	}
	return -1
}

// parseTag parses a positive decimal integer tag. It does not use
// strconv.Atoi to avoid that function's allowance for a leading sign and
// to keep this entirely on the hot path without an intermediate string.
func parseTag(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	tag := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		tag = tag*10 + int(c-'0')
	}
	if tag == 0 {
		return 0, false
	}
	return tag, true
}
