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

package scanner

import (
	"bytes"
	"io"
	"os"
	"regexp"

	"github.com/pkg/errors"

	"fixreplay/fixmsg"
)

var anchor = []byte("8=FIX")

var (
	timestampRE = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d{3})?`)
	directionRE = regexp.MustCompile(`(?i)\b(IN|OUT)\b`)
)

// Scanner streams RawMessage values out of a single file in file order.
// It is single-pass and not safe for concurrent use.
//
// HOT PATH: Next is called once per message in a multi-million-message
// replay log; its buffer management must not allocate per call beyond the
// payload copy each RawMessage owns.
type Scanner struct {
	f          *os.File
	cfg        Config
	sourcePath string

	buf        []byte
	readPos    int
	scanPos    int
	baseOffset int64
	eof        bool
	closed     bool
}

// NewScanner opens path and prepares a Scanner over it. A file-open
// failure is fatal per spec.md §7 error kind 1.
func NewScanner(path string, cfg Config) (*Scanner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "scanner: opening %s", path)
	}
	return &Scanner{
		f:          f,
		cfg:        cfg,
		sourcePath: path,
		buf:        make([]byte, 0, cfg.ChunkSize*2),
	}, nil
}

// Close releases the underlying file handle. Idempotent.
func (s *Scanner) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

// fill reads one more chunk into the buffer, reclaiming already-consumed
// bytes before scanPos and growing the buffer when the unconsumed region
// alone would not leave room for a new chunk. Mirrors the
// reclaim-or-grow pattern used by streaming log parsers throughout the
// pack. Only bytes before scanPos are reclaimed, and scanPos advances only
// past an emitted message or a dropped anchor, so noise that contains no
// anchor stays buffered, however long, until the next anchor is handled.
func (s *Scanner) fill() error {
	if s.eof {
		return nil
	}
	if cap(s.buf)-s.readPos < s.cfg.ChunkSize {
		if s.scanPos > 0 {
			copy(s.buf[0:], s.buf[s.scanPos:s.readPos])
			s.readPos -= s.scanPos
			s.baseOffset += int64(s.scanPos)
			s.scanPos = 0
		}
		if cap(s.buf)-s.readPos < s.cfg.ChunkSize {
			grown := make([]byte, len(s.buf), cap(s.buf)*2+s.cfg.ChunkSize)
			copy(grown, s.buf[:s.readPos])
			s.buf = grown
		}
	}
	s.buf = s.buf[:cap(s.buf)]
	n, err := s.f.Read(s.buf[s.readPos:])
	s.readPos += n
	s.buf = s.buf[:s.readPos]
	if err != nil {
		if err == io.EOF {
			s.eof = true
			return nil
		}
		return errors.Wrapf(err, "scanner: reading %s", s.sourcePath)
	}
	if n == 0 {
		s.eof = true
	}
	return nil
}

// Next returns the next RawMessage in file order, or ok=false once the
// file is exhausted. err is non-nil only for a mid-stream I/O failure;
// already-returned messages remain valid per spec.md §7 error kind 3/4.
func (s *Scanner) Next() (RawMessage, bool, error) {
	for {
		idx := bytes.Index(s.buf[s.scanPos:s.readPos], anchor)
		if idx == -1 {
			if s.eof {
				return RawMessage{}, false, nil
			}
			if err := s.fill(); err != nil {
				return RawMessage{}, false, err
			}
			continue
		}
		anchorPos := s.scanPos + idx

		// Ensure enough data is buffered to look maxMessageLength ahead of
		// the anchor before deciding the closer isn't there.
		for s.readPos-anchorPos < s.cfg.MaxMessageLength && !s.eof {
			if err := s.fill(); err != nil {
				return RawMessage{}, false, err
			}
			idx = bytes.Index(s.buf[s.scanPos:s.readPos], anchor)
			anchorPos = s.scanPos + idx
		}

		closerEnd, found := findCloser(s.buf[anchorPos:s.readPos], s.cfg.SupportedDelimiters)
		if !found || closerEnd > s.cfg.MaxMessageLength {
			// Guard against pathologically truncated logs: drop this
			// anchor and resume scanning just past it.
			s.scanPos = anchorPos + 1
			continue
		}

		msgEnd := anchorPos + closerEnd
		rawPayload := s.buf[anchorPos:msgEnd]
		prefix := linePrefix(s.buf[s.scanPos:anchorPos])

		payload := append([]byte(nil), rawPayload...)
		payload = fixmsg.Canonicalize(payload)
		payload = stripBrackets(payload)

		msg := RawMessage{
			SourcePath: s.sourcePath,
			Offset:     s.baseOffset + int64(anchorPos),
			Payload:    payload,
			Timestamp:  extractTimestamp(prefix),
			Direction:  extractDirection(prefix),
		}
		s.scanPos = msgEnd
		return msg, true, nil
	}
}

// findCloser walks fields from the start of window (which begins at an
// "8=FIX" anchor), looking for a field of the exact shape "10=DDD"
// followed by a configured delimiter. It returns the offset just past
// that delimiter, i.e. the exclusive end of the message payload.
func findCloser(window []byte, allowed Delimiter) (int, bool) {
	pos := 0
	for pos < len(window) {
		fieldLen, delimLen, found := nextDelimiter(window[pos:], allowed)
		if !found {
			return 0, false
		}
		field := window[pos : pos+fieldLen]
		if isCloserField(field) {
			return pos + fieldLen + delimLen, true
		}
		pos += fieldLen + delimLen
	}
	return 0, false
}

func isCloserField(field []byte) bool {
	if len(field) != 6 || field[0] != '1' || field[1] != '0' || field[2] != '=' {
		return false
	}
	for _, c := range field[3:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// nextDelimiter finds the earliest occurrence, among the allowed
// delimiter variants, in b. It returns the byte offset of the field
// preceding it and the delimiter's own byte length (1 for SOH/pipe, 2 for
// the literal "^A" sequence).
func nextDelimiter(b []byte, allowed Delimiter) (fieldLen int, delimLen int, found bool) {
	best := -1
	bestLen := 0
	for i := 0; i < len(b); i++ {
		switch {
		case allowed.has(DelimSOH) && b[i] == fixmsg.SOH:
			best, bestLen = i, 1
		case allowed.has(DelimPipe) && b[i] == '|':
			best, bestLen = i, 1
		case allowed.has(DelimCaretA) && i+1 < len(b) && b[i] == '^' && b[i+1] == 'A':
			best, bestLen = i, 2
		default:
			continue
		}
		return best, bestLen, true
	}
	return 0, 0, false
}

// stripBrackets removes exactly one surrounding '[' ']' pair, if present.
func stripBrackets(payload []byte) []byte {
	if len(payload) >= 2 && payload[0] == '[' && payload[len(payload)-1] == ']' {
		return payload[1 : len(payload)-1]
	}
	return payload
}

// linePrefix returns the portion of region on the same line as whatever
// follows it — i.e. the text after the last newline, or all of region if
// region contains none.
func linePrefix(region []byte) []byte {
	if i := bytes.LastIndexByte(region, '\n'); i != -1 {
		return region[i+1:]
	}
	return region
}

func extractTimestamp(prefix []byte) string {
	return timestampRE.FindString(string(prefix))
}

func extractDirection(prefix []byte) Direction {
	m := directionRE.FindSubmatch(prefix)
	if m == nil {
		return DirUnknown
	}
	switch string(bytes.ToUpper(m[1])) {
	case "IN":
		return DirIn
	case "OUT":
		return DirOut
	default:
		return DirUnknown
	}
}
