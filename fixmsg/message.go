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

import (
	"fmt"
	"strconv"
)

// TagMsgType is FIX tag 35, present on essentially every message.
const TagMsgType = 35

// FixField is a single tag=value pair. Value is held as raw bytes: FIX
// values are ISO-8859-1, not necessarily valid UTF-8, and must round-trip
// byte for byte.
type FixField struct {
	Tag   int
	Value []byte
}

// FixMessage is an ordered tag->value mapping built by Parse. It is
// immutable once constructed: there is no public mutator.
type FixMessage struct {
	table *tagTable
	order []int // tags in first-seen order, for round-trip serialization
}

func newFixMessage(capacityHint int) *FixMessage {
	return &FixMessage{table: newTagTable(capacityHint)}
}

// set is parser-internal: it is not part of the public API, since
// FixMessage is immutable after Parse returns.
func (m *FixMessage) set(tag int, value []byte) error {
	if tag <= 0 {
		return fmt.Errorf("fixmsg: invalid tag %d, must be > 0", tag)
	}
	if _, exists := m.table.probe(tag); !exists {
		m.order = append(m.order, tag)
	}
	m.table.set(tag, value)
	return nil
}

// Get returns the last-written value for tag, if present.
func (m *FixMessage) Get(tag int) (string, bool) {
	v, ok := m.table.get(tag)
	if !ok {
		return "", false
	}
	return string(v), true
}

// GetBytes returns the last-written raw value for tag, if present. The
// returned slice shares the message's backing buffer and must not be
// mutated.
func (m *FixMessage) GetBytes(tag int) ([]byte, bool) {
	return m.table.get(tag)
}

// Duplicates returns every value seen for tag in insertion order
// (including the one Get would return), or false if tag was never
// repeated. The common, non-repeated case allocates nothing.
func (m *FixMessage) Duplicates(tag int) ([]string, bool) {
	raw, ok := m.table.dupsFor(tag)
	if !ok {
		return nil, false
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = string(v)
	}
	return out, true
}

// GetInt returns tag's value parsed as a decimal integer. ok is false if
// the tag is absent or its value is not a valid integer.
func (m *FixMessage) GetInt(tag int) (int, bool) {
	v, ok := m.Get(tag)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MsgType returns the value of tag 35, if present.
func (m *FixMessage) MsgType() (string, bool) {
	return m.Get(TagMsgType)
}

// Tags returns every tag present, in ascending numeric order.
func (m *FixMessage) Tags() []int {
	return m.table.tags()
}

// Len returns the number of distinct tags present.
func (m *FixMessage) Len() int {
	return m.table.count
}

// Fields returns every field in original insertion order, suitable for
// round-trip re-serialization.
func (m *FixMessage) Fields() []FixField {
	out := make([]FixField, 0, len(m.order))
	for _, tag := range m.order {
		v, _ := m.table.get(tag)
		out = append(out, FixField{Tag: tag, Value: v})
	}
	return out
}
