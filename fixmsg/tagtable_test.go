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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagTable_SetGet(t *testing.T) {
	tbl := newTagTable(4)
	tbl.set(35, []byte("D"))
	tbl.set(8, []byte("FIX.4.4"))

	v, ok := tbl.get(35)
	require.True(t, ok)
	assert.Equal(t, "D", string(v))

	_, ok = tbl.get(999)
	assert.False(t, ok)
}

func TestTagTable_OverwriteRecordsDuplicate(t *testing.T) {
	tbl := newTagTable(4)
	tbl.set(35, []byte("D"))
	tbl.set(35, []byte("G"))
	tbl.set(35, []byte("F"))

	v, _ := tbl.get(35)
	assert.Equal(t, "F", string(v))

	dups, ok := tbl.dupsFor(35)
	require.True(t, ok)
	require.Len(t, dups, 3)
	assert.Equal(t, []string{"D", "G", "F"}, []string{string(dups[0]), string(dups[1]), string(dups[2])})
}

func TestTagTable_NoDuplicatesForSingleWrite(t *testing.T) {
	tbl := newTagTable(4)
	tbl.set(35, []byte("D"))
	_, ok := tbl.dupsFor(35)
	assert.False(t, ok)
}

func TestTagTable_GrowPreservesEntriesAndDuplicates(t *testing.T) {
	tbl := newTagTable(2) // small starting capacity, forces growth quickly
	for i := 1; i <= 50; i++ {
		tbl.set(i, []byte{byte(i)})
	}
	tbl.set(1, []byte("overwritten"))

	assert.LessOrEqual(t, tbl.loadFactor(), 0.6)
	for i := 2; i <= 50; i++ {
		v, ok := tbl.get(i)
		require.True(t, ok, "tag %d missing after growth", i)
		assert.Equal(t, []byte{byte(i)}, v)
	}

	v, ok := tbl.get(1)
	require.True(t, ok)
	assert.Equal(t, "overwritten", string(v))
	dups, ok := tbl.dupsFor(1)
	require.True(t, ok)
	assert.Len(t, dups, 2)
}

func TestTagTable_TagsAscending(t *testing.T) {
	tbl := newTagTable(4)
	for _, tag := range []int{55, 8, 35, 9, 10} {
		tbl.set(tag, []byte("x"))
	}
	assert.Equal(t, []int{8, 9, 10, 35, 55}, tbl.tags())
}

func TestSortInts(t *testing.T) {
	s := []int{5, 3, 8, 1, 9, 2}
	sortInts(s)
	assert.Equal(t, []int{1, 2, 3, 5, 8, 9}, s)
}
