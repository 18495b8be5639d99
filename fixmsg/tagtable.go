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

// Package fixmsg implements the FIX tag-value message model: a
// byte-preserving parser, a delimiter canonicalizer, and the field store
// every parsed message is built on.
//
// HOT PATH: tagTable is allocated once per parsed message and probed a few
// dozen times. It must not box its keys or allocate on lookup.
package fixmsg

const emptySlot = 0 // FIX tags start at 1; 0 marks an unused slot.

// tagTable is an open-addressed, linear-probing hash table keyed by FIX tag
// (a small positive int). It trades the generality of map[int]... for zero
// boxing and predictable cache behavior, per the field-store design this
// message model is built on.
type tagTable struct {
	keys   []int
	values []fieldSlot
	count  int
}

type fieldSlot struct {
	value []byte
	// dups holds every value seen for this tag, in insertion order,
	// lazily allocated only when the tag repeats.
	dups [][]byte
}

func newTagTable(capacityHint int) *tagTable {
	size := nextPow2(capacityHint*2 + 1)
	if size < 8 {
		size = 8
	}
	return &tagTable{
		keys:   make([]int, size),
		values: make([]fieldSlot, size),
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// mix is a fibonacci multiplicative hash on the tag integer, spread into the
// table's index space.
func mix(tag int, mask int) int {
	const golden = 0x9E3779B97F4A7C15
	h := uint64(tag) * golden
	return int(h>>33) & mask
}

func (t *tagTable) loadFactor() float64 {
	return float64(t.count) / float64(len(t.keys))
}

func (t *tagTable) growIfNeeded() {
	// Check the load the table would have after one more insert, so it never
	// holds more than 0.6 of its slots.
	if float64(t.count+1)/float64(len(t.keys)) <= 0.6 {
		return
	}
	old := *t
	t.keys = make([]int, len(old.keys)*2)
	t.values = make([]fieldSlot, len(old.keys)*2)
	t.count = 0
	for i, k := range old.keys {
		if k != emptySlot {
			t.set(k, old.values[i].value)
			t.values[t.slotFor(k)].dups = old.values[i].dups
		}
	}
}

// slotFor returns the index the key currently occupies, assuming it is
// present; callers that need to insert should use probe instead.
func (t *tagTable) slotFor(tag int) int {
	mask := len(t.keys) - 1
	idx := mix(tag, mask)
	for {
		if t.keys[idx] == tag {
			return idx
		}
		idx = (idx + 1) & mask
	}
}

// probe finds the slot for tag, returning (index, found).
func (t *tagTable) probe(tag int) (int, bool) {
	mask := len(t.keys) - 1
	idx := mix(tag, mask)
	for {
		k := t.keys[idx]
		if k == emptySlot {
			return idx, false
		}
		if k == tag {
			return idx, true
		}
		idx = (idx + 1) & mask
	}
}

// set writes value for tag, overwriting any prior value (last-write-wins)
// and recording the overwritten value in the duplicates side table.
func (t *tagTable) set(tag int, value []byte) {
	t.growIfNeeded()
	idx, found := t.probe(tag)
	if !found {
		t.keys[idx] = tag
		t.values[idx].value = value
		t.count++
		return
	}
	slot := &t.values[idx]
	if slot.dups == nil {
		slot.dups = append(slot.dups, slot.value)
	}
	slot.dups = append(slot.dups, value)
	slot.value = value
}

func (t *tagTable) get(tag int) ([]byte, bool) {
	idx, found := t.probe(tag)
	if !found {
		return nil, false
	}
	return t.values[idx].value, true
}

func (t *tagTable) dupsFor(tag int) ([][]byte, bool) {
	idx, found := t.probe(tag)
	if !found || t.values[idx].dups == nil {
		return nil, false
	}
	return t.values[idx].dups, true
}

// tags returns every tag present, in ascending numeric order.
func (t *tagTable) tags() []int {
	out := make([]int, 0, t.count)
	for _, k := range t.keys {
		if k != emptySlot {
			out = append(out, k)
		}
	}
	sortInts(out)
	return out
}

func sortInts(s []int) {
	// Insertion sort: message tag counts are small (dozens), and this
	// avoids pulling in sort.Ints for a handful of elements on the hot path.
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}
