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

package linker

import (
	"sort"
	"strconv"
	"strings"

	"fixreplay/fixmsg"
)

// Entry pairs a parsed message with a number identifying where it came
// from, so reports can point back at the source log. Entries built by the
// scenario package carry the message's 1-based position among the
// messages scanned from its file, not its text line number.
type Entry struct {
	Line    int
	Message *fixmsg.FixMessage
}

// StrategyResult records the tag combination chosen for one msgType and
// the pairing counts it produced.
type StrategyResult struct {
	MsgType   string `json:"msgType"`
	Tags      []int  `json:"tags"`
	Matched   int    `json:"matched"`
	Unmatched int    `json:"unmatched"`
	Ambiguous int    `json:"ambiguous"`
}

// FixLink is one paired in/out message, found under the chosen strategy
// for its msgType.
type FixLink struct {
	MsgType string `json:"msgType"`
	Tags    []int  `json:"tags"`
	Key     string `json:"key"`
	InLine  int    `json:"inLine"`
	OutLine int    `json:"outLine"`
}

// UnmatchedEntry is an in- or out-only message that no strategy could pair.
type UnmatchedEntry struct {
	MsgType string `json:"msgType"`
	Line    int    `json:"line"`
}

// Collision is a worst-offender key: one that matched more than one
// message on at least one side, so no unique pairing could be made for it.
type Collision struct {
	MsgType  string `json:"msgType"`
	Tags     []int  `json:"tags"`
	Key      string `json:"key"`
	InCount  int    `json:"inCount"`
	OutCount int    `json:"outCount"`
	InLines  []int  `json:"inLines"`
	OutLines []int  `json:"outLines"`
}

// LinkReport is the full output of a Link run: every field is a slice in
// a sorted, reproducible order, so json.Marshal of a LinkReport is
// byte-identical across runs on identical input (spec.md §4.3 "Determinism").
type LinkReport struct {
	Strategies   []StrategyResult `json:"strategies"`
	Links        []FixLink        `json:"links"`
	UnmatchedIn  []UnmatchedEntry `json:"unmatchedIn"`
	UnmatchedOut []UnmatchedEntry `json:"unmatchedOut"`
	Collisions   []Collision      `json:"collisions"`
}

// Link runs strategy discovery and pairing for every msgType present in
// ins or outs.
func Link(ins, outs []Entry, cfg Config) *LinkReport {
	inByType := groupByMsgType(ins)
	outByType := groupByMsgType(outs)

	msgTypes := make(map[string]struct{})
	for mt := range inByType {
		msgTypes[mt] = struct{}{}
	}
	for mt := range outByType {
		msgTypes[mt] = struct{}{}
	}
	sortedTypes := make([]string, 0, len(msgTypes))
	for mt := range msgTypes {
		sortedTypes = append(sortedTypes, mt)
	}
	sort.Strings(sortedTypes)

	report := &LinkReport{}
	for _, mt := range sortedTypes {
		strat, links, unmatchedIn, unmatchedOut, collisions := discover(mt, inByType[mt], outByType[mt], cfg)
		report.Strategies = append(report.Strategies, strat)
		report.Links = append(report.Links, links...)
		report.UnmatchedIn = append(report.UnmatchedIn, unmatchedIn...)
		report.UnmatchedOut = append(report.UnmatchedOut, unmatchedOut...)
		report.Collisions = append(report.Collisions, collisions...)
	}
	return report
}

func groupByMsgType(entries []Entry) map[string][]Entry {
	out := make(map[string][]Entry)
	for _, e := range entries {
		mt, ok := e.Message.MsgType()
		if !ok {
			continue
		}
		out[mt] = append(out[mt], e)
	}
	return out
}

// candidate is one tag combination under consideration, with its score.
type candidate struct {
	tags      []int
	matched   int
	ambiguous int
	inMap     map[string][]Entry
	outMap    map[string][]Entry
}

func (c candidate) score() int { return c.matched - c.ambiguous }

// informative reports whether any in/out message actually carried one of
// this candidate's tags. A candidate built from tags no message has is
// vacuously tied with every other untried candidate at score 0 and must
// not be allowed to win best-score tracking by arriving first.
func (c candidate) informative() bool { return len(c.inMap) > 0 || len(c.outMap) > 0 }

func discover(msgType string, ins, outs []Entry, cfg Config) (StrategyResult, []FixLink, []UnmatchedEntry, []UnmatchedEntry, []Collision) {
	combos := candidateCombinations(msgType, cfg)

	var chosen *candidate
	var best *candidate
	for _, tags := range combos {
		c := buildCandidate(tags, ins, outs, cfg.Normalizers)
		if !c.informative() {
			continue
		}
		if best == nil || c.score() > best.score() {
			best = &c
		}
		if c.matched > 0 && c.ambiguous == 0 {
			chosen = &c
			break
		}
	}
	if chosen == nil {
		chosen = best
	}
	if chosen == nil {
		// No candidate tags configured, or no message carries any of them:
		// every message is unmatched.
		return StrategyResult{MsgType: msgType}, nil, unmatchedEntries(msgType, ins), unmatchedEntries(msgType, outs), nil
	}

	links, unmatchedIn, unmatchedOut := pair(msgType, *chosen)
	collisions := collectCollisions(msgType, *chosen, cfg.collisionLimit())

	result := StrategyResult{
		MsgType:   msgType,
		Tags:      chosen.tags,
		Matched:   chosen.matched,
		Unmatched: len(unmatchedIn) + len(unmatchedOut),
		Ambiguous: chosen.ambiguous,
	}
	return result, links, unmatchedIn, unmatchedOut, collisions
}

// candidateCombinations returns the candidate tag tuples to try, in the
// exact order spec.md §4.3 requires: overrides verbatim if configured for
// this msgType, else every nonempty subset of CandidateTags of size
// 1..maxSize, ordered by size ascending then lexicographic tuple order.
func candidateCombinations(msgType string, cfg Config) [][]int {
	if cfg.OverrideCandidates != nil {
		if override, ok := cfg.OverrideCandidates[msgType]; ok {
			return override
		}
	}
	tags := append([]int(nil), cfg.CandidateTags...)
	sort.Ints(tags)
	maxSize := cfg.CandidateCombinationMaxSize
	if maxSize <= 0 {
		maxSize = 1
	}
	var out [][]int
	for size := 1; size <= maxSize && size <= len(tags); size++ {
		out = append(out, combinationsOfSize(tags, size)...)
	}
	return out
}

func combinationsOfSize(tags []int, size int) [][]int {
	var out [][]int
	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}
	for {
		combo := make([]int, size)
		for i, j := range idx {
			combo[i] = tags[j]
		}
		out = append(out, combo)

		i := size - 1
		for i >= 0 && idx[i] == len(tags)-size+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < size; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return out
}

func buildKey(msg *fixmsg.FixMessage, tags []int, normalizers map[int]Normalizer) (string, bool) {
	var sb strings.Builder
	for i, tag := range tags {
		v, ok := msg.Get(tag)
		if !ok {
			return "", false
		}
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(strconv.Itoa(tag))
		sb.WriteByte('=')
		sb.WriteString(normalize(tag, v, normalizers))
	}
	return sb.String(), true
}

func buildCandidate(tags []int, ins, outs []Entry, normalizers map[int]Normalizer) candidate {
	c := candidate{tags: tags, inMap: map[string][]Entry{}, outMap: map[string][]Entry{}}
	for _, e := range ins {
		if key, ok := buildKey(e.Message, tags, normalizers); ok {
			c.inMap[key] = append(c.inMap[key], e)
		}
	}
	for _, e := range outs {
		if key, ok := buildKey(e.Message, tags, normalizers); ok {
			c.outMap[key] = append(c.outMap[key], e)
		}
	}

	keys := make(map[string]struct{})
	for k := range c.inMap {
		keys[k] = struct{}{}
	}
	for k := range c.outMap {
		keys[k] = struct{}{}
	}
	for k := range keys {
		inN, outN := len(c.inMap[k]), len(c.outMap[k])
		if inN == 1 && outN == 1 {
			c.matched++
		}
		if inN > 1 || outN > 1 {
			c.ambiguous++
		}
	}
	return c
}

func pair(msgType string, c candidate) ([]FixLink, []UnmatchedEntry, []UnmatchedEntry) {
	keys := sortedKeys(c.inMap, c.outMap)

	usedIn := make(map[int]bool)
	usedOut := make(map[int]bool)
	var links []FixLink
	for _, key := range keys {
		ins, outs := c.inMap[key], c.outMap[key]
		if len(ins) == 1 && len(outs) == 1 {
			links = append(links, FixLink{
				MsgType: msgType,
				Tags:    c.tags,
				Key:     key,
				InLine:  ins[0].Line,
				OutLine: outs[0].Line,
			})
			usedIn[ins[0].Line] = true
			usedOut[outs[0].Line] = true
		}
	}

	var unmatchedIn, unmatchedOut []UnmatchedEntry
	for _, entries := range c.inMap {
		for _, e := range entries {
			if !usedIn[e.Line] {
				unmatchedIn = append(unmatchedIn, UnmatchedEntry{MsgType: msgType, Line: e.Line})
			}
		}
	}
	for _, entries := range c.outMap {
		for _, e := range entries {
			if !usedOut[e.Line] {
				unmatchedOut = append(unmatchedOut, UnmatchedEntry{MsgType: msgType, Line: e.Line})
			}
		}
	}
	sort.Slice(unmatchedIn, func(i, j int) bool { return unmatchedIn[i].Line < unmatchedIn[j].Line })
	sort.Slice(unmatchedOut, func(i, j int) bool { return unmatchedOut[i].Line < unmatchedOut[j].Line })
	return links, unmatchedIn, unmatchedOut
}

func unmatchedEntries(msgType string, entries []Entry) []UnmatchedEntry {
	out := make([]UnmatchedEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, UnmatchedEntry{MsgType: msgType, Line: e.Line})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

func collectCollisions(msgType string, c candidate, limit int) []Collision {
	if c.ambiguous == 0 {
		return nil
	}
	keys := sortedKeys(c.inMap, c.outMap)
	var collisions []Collision
	for _, key := range keys {
		ins, outs := c.inMap[key], c.outMap[key]
		if len(ins) <= 1 && len(outs) <= 1 {
			continue
		}
		collisions = append(collisions, Collision{
			MsgType:  msgType,
			Tags:     c.tags,
			Key:      key,
			InCount:  len(ins),
			OutCount: len(outs),
			InLines:  sortedLines(ins),
			OutLines: sortedLines(outs),
		})
	}
	sort.Slice(collisions, func(i, j int) bool {
		a, b := collisions[i], collisions[j]
		totalA, totalB := a.InCount+a.OutCount, b.InCount+b.OutCount
		if totalA != totalB {
			return totalA > totalB
		}
		return a.Key < b.Key
	})
	if len(collisions) > limit {
		collisions = collisions[:limit]
	}
	return collisions
}

func sortedKeys(maps ...map[string][]Entry) []string {
	seen := make(map[string]struct{})
	for _, m := range maps {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedLines(entries []Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Line
	}
	sort.Ints(out)
	return out
}
