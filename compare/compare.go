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

// Package compare diffs two FIX messages tag by tag, outside a configured
// set of session-layer/volatile tags, to decide replay equivalence.
package compare

import (
	"sort"

	"fixreplay/fixmsg"
)

// DefaultExcludedTags are session-layer/volatile fields not meaningful
// for replay equivalence, per spec.md §4.4.
func DefaultExcludedTags() map[int]bool {
	return map[int]bool{8: true, 9: true, 10: true, 34: true, 52: true, 60: true, 122: true}
}

// ValueDiff is the expected/actual pair recorded for a tag whose values
// differ.
type ValueDiff struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// DiffMessage is the result of comparing one expected/actual message pair.
type DiffMessage struct {
	Passed          bool              `json:"passed"`
	MissingTags     []int             `json:"missingTags"`
	ExtraTags       []int             `json:"extraTags"`
	DifferingValues map[int]ValueDiff `json:"differingValues"`
}

// Comparator diffs message pairs under a fixed configuration: an excluded
// tag set and optional per-tag normalizers.
type Comparator struct {
	excluded    map[int]bool
	normalizers map[int]func(string) string
}

// NewComparator builds a Comparator. A nil excluded map uses
// DefaultExcludedTags.
func NewComparator(excluded map[int]bool, normalizers map[int]func(string) string) *Comparator {
	if excluded == nil {
		excluded = DefaultExcludedTags()
	}
	return &Comparator{excluded: excluded, normalizers: normalizers}
}

// Diff compares expected against actual per spec.md §4.4.
func (c *Comparator) Diff(expected, actual *fixmsg.FixMessage) DiffMessage {
	universe := make(map[int]bool)
	for _, tag := range expected.Tags() {
		if !c.excluded[tag] {
			universe[tag] = true
		}
	}
	for _, tag := range actual.Tags() {
		if !c.excluded[tag] {
			universe[tag] = true
		}
	}

	tags := make([]int, 0, len(universe))
	for tag := range universe {
		tags = append(tags, tag)
	}
	sort.Ints(tags)

	result := DiffMessage{DifferingValues: map[int]ValueDiff{}}
	for _, tag := range tags {
		ev, eok := expected.Get(tag)
		av, aok := actual.Get(tag)
		switch {
		case eok && aok:
			if c.normalize(tag, ev) != c.normalize(tag, av) {
				result.DifferingValues[tag] = ValueDiff{Expected: ev, Actual: av}
			}
		case eok && !aok:
			result.MissingTags = append(result.MissingTags, tag)
		case !eok && aok:
			result.ExtraTags = append(result.ExtraTags, tag)
		}
	}
	result.Passed = len(result.MissingTags) == 0 && len(result.ExtraTags) == 0 && len(result.DifferingValues) == 0
	return result
}

func (c *Comparator) normalize(tag int, value string) string {
	if n, ok := c.normalizers[tag]; ok {
		return n(value)
	}
	return value
}
