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
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixreplay/fixmsg"
)

func mustMsg(t *testing.T, msgType string, tags map[int]string) *fixmsg.FixMessage {
	t.Helper()
	raw := "35=" + msgType + "\x01"
	for tag, val := range tags {
		raw += fmt.Sprintf("%d=%s\x01", tag, val)
	}
	msg, err := fixmsg.Parse([]byte(raw))
	require.NoError(t, err)
	return msg
}

func inFixtures(t *testing.T) []Entry {
	t.Helper()
	return []Entry{
		{Line: 1, Message: mustMsg(t, "D", map[int]string{11: "ORD-1"})},
		{Line: 2, Message: mustMsg(t, "D", map[int]string{11: "ORD-4"})},
		{Line: 4, Message: mustMsg(t, "G", map[int]string{41: "ORD-2"})},
		{Line: 5, Message: mustMsg(t, "G", map[int]string{41: "ORD-2"})},
		{Line: 6, Message: mustMsg(t, "G", map[int]string{41: "ORD-3"})},
		{Line: 20, Message: mustMsg(t, "8", map[int]string{17: "A", 37: "X"})},
		{Line: 21, Message: mustMsg(t, "8", map[int]string{17: "A", 37: "Y"})},
		{Line: 22, Message: mustMsg(t, "8", map[int]string{17: "B", 37: "X"})},
	}
}

func outFixtures(t *testing.T) []Entry {
	t.Helper()
	return []Entry{
		{Line: 7, Message: mustMsg(t, "D", map[int]string{11: "ORD-1"})},
		{Line: 8, Message: mustMsg(t, "D", map[int]string{11: "ORD-4"})},
		{Line: 10, Message: mustMsg(t, "G", map[int]string{41: "ORD-2"})},
		{Line: 11, Message: mustMsg(t, "G", map[int]string{41: "ORD-3"})},
		{Line: 30, Message: mustMsg(t, "8", map[int]string{17: "A", 37: "X"})},
		{Line: 31, Message: mustMsg(t, "8", map[int]string{17: "A", 37: "Y"})},
		{Line: 32, Message: mustMsg(t, "8", map[int]string{17: "B", 37: "X"})},
	}
}

// TestLink_DiscoversPerMsgTypeStrategy covers S4's shape: a different
// strategy is discovered independently per msgType, preferring the
// smallest unambiguous combination.
func TestLink_DiscoversPerMsgTypeStrategy(t *testing.T) {
	report := Link(inFixtures(t), outFixtures(t), DefaultConfig())

	byType := map[string]StrategyResult{}
	for _, s := range report.Strategies {
		byType[s.MsgType] = s
	}

	require.Contains(t, byType, "D")
	assert.Equal(t, []int{11}, byType["D"].Tags)
	assert.Equal(t, 2, byType["D"].Matched)
	assert.Equal(t, 0, byType["D"].Ambiguous)

	require.Contains(t, byType, "G")
	assert.Equal(t, []int{41}, byType["G"].Tags)
	assert.Equal(t, 1, byType["G"].Matched)
	assert.Equal(t, 1, byType["G"].Ambiguous)

	require.Contains(t, byType, "8")
	assert.Equal(t, []int{17, 37}, byType["8"].Tags)
	assert.Equal(t, 3, byType["8"].Matched)
	assert.Equal(t, 0, byType["8"].Ambiguous)
}

// TestLink_TopCollision covers S4's collision-reporting example precisely:
// msgType G, key "41=ORD-2", inLines=[4,5].
func TestLink_TopCollision(t *testing.T) {
	report := Link(inFixtures(t), outFixtures(t), DefaultConfig())

	require.Len(t, report.Collisions, 1)
	c := report.Collisions[0]
	assert.Equal(t, "G", c.MsgType)
	assert.Equal(t, "41=ORD-2", c.Key)
	assert.Equal(t, []int{4, 5}, c.InLines)
	assert.Equal(t, []int{10}, c.OutLines)
}

// TestLink_Determinism covers the linker determinism property:
// LinkReport.toJson() is byte-identical across repeated runs.
func TestLink_Determinism(t *testing.T) {
	ins, outs := inFixtures(t), outFixtures(t)
	first := Link(ins, outs, DefaultConfig())
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		report := Link(inFixtures(t), outFixtures(t), DefaultConfig())
		j, err := json.Marshal(report)
		require.NoError(t, err)
		assert.Equal(t, string(firstJSON), string(j), "run %d diverged", i)
	}
}

// TestLink_Soundness covers the linker soundness property: every reported
// pair's key is equal, under the chosen strategy's tags, for both sides.
func TestLink_Soundness(t *testing.T) {
	inEntries, outEntries := inFixtures(t), outFixtures(t)
	report := Link(inEntries, outEntries, DefaultConfig())

	inByLine := map[int]*fixmsg.FixMessage{}
	for _, e := range inEntries {
		inByLine[e.Line] = e.Message
	}
	outByLine := map[int]*fixmsg.FixMessage{}
	for _, e := range outEntries {
		outByLine[e.Line] = e.Message
	}

	for _, link := range report.Links {
		inKey, ok := buildKey(inByLine[link.InLine], link.Tags, nil)
		require.True(t, ok)
		outKey, ok := buildKey(outByLine[link.OutLine], link.Tags, nil)
		require.True(t, ok)
		assert.Equal(t, inKey, outKey)
		assert.Equal(t, link.Key, inKey)
	}
}

func TestCombinationsOfSize(t *testing.T) {
	combos := combinationsOfSize([]int{1, 2, 3}, 2)
	assert.Equal(t, [][]int{{1, 2}, {1, 3}, {2, 3}}, combos)
}

func TestCandidateCombinations_SizeAscendingLexicographic(t *testing.T) {
	cfg := Config{CandidateTags: []int{60, 11, 41}, CandidateCombinationMaxSize: 2}
	combos := candidateCombinations("D", cfg)
	assert.Equal(t, [][]int{
		{11}, {41}, {60},
		{11, 41}, {11, 60}, {41, 60},
	}, combos)
}

func TestCandidateCombinations_Override(t *testing.T) {
	cfg := Config{
		CandidateTags:               []int{11, 41},
		CandidateCombinationMaxSize: 2,
		OverrideCandidates:          map[string][][]int{"D": {{99}, {41, 11}}},
	}
	combos := candidateCombinations("D", cfg)
	assert.Equal(t, [][]int{{99}, {41, 11}}, combos)
}
