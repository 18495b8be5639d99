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

import "bytes"

// SOH is the standard FIX field delimiter, byte 0x01.
const SOH = 0x01

var (
	pipeDelim = []byte("|")
	caretSOH  = []byte("^A")
)

// Canonicalize rewrites every recognized delimiter variant in raw to a
// single SOH byte wherever it occurs (a '|' or "^A" inside a tag value is
// rewritten too) and leaves every other byte untouched. Captured log
// text commonly substitutes a printable delimiter for SOH so it can be
// viewed in a terminal or text editor; this function undoes that.
//
// Canonicalize is idempotent: canonicalizing already-canonical input is a
// no-op. Output is never longer than input, since every replacement is
// same-length-or-shorter ("^A" -> one byte).
func Canonicalize(raw []byte) []byte {
	if !bytes.Contains(raw, pipeDelim) && !bytes.Contains(raw, caretSOH) {
		return raw
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); {
		switch {
		case raw[i] == '|':
			out = append(out, SOH)
			i++
		case i+1 < len(raw) && raw[i] == '^' && raw[i+1] == 'A':
			out = append(out, SOH)
			i += 2
		default:
			out = append(out, raw[i])
			i++
		}
	}
	return out
}
