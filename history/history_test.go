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

package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_StoreAndRetrieveRun(t *testing.T) {
	s := openTestStore(t)

	start := time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC)
	run := Run{
		JobID:             "job-1",
		Scenario:          "demo",
		Mode:              "offline",
		StartedAt:         start,
		FinishedAt:        start.Add(5 * time.Second),
		Matched:           3,
		UnmatchedExpected: 1,
		Ambiguous:         0,
		FailedMessages:    0,
		Passed:            false,
	}
	require.NoError(t, s.StoreRun(run))

	runs, err := s.RunsForScenario("demo")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "job-1", runs[0].JobID)
	assert.Equal(t, 3, runs[0].Matched)
	assert.Equal(t, 1, runs[0].UnmatchedExpected)
	assert.False(t, runs[0].Passed)
	assert.True(t, runs[0].StartedAt.Equal(start))
}

func TestStore_RunsForScenario_MostRecentFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.StoreRun(Run{JobID: "job-1", Scenario: "demo", Mode: "offline", StartedAt: base, FinishedAt: base.Add(time.Second), Passed: true}))
	require.NoError(t, s.StoreRun(Run{JobID: "job-2", Scenario: "demo", Mode: "offline", StartedAt: base, FinishedAt: base.Add(2 * time.Second), Passed: true}))

	runs, err := s.RunsForScenario("demo")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "job-2", runs[0].JobID)
	assert.Equal(t, "job-1", runs[1].JobID)
}

func TestStore_RunsForScenario_EmptyForUnknownScenario(t *testing.T) {
	s := openTestStore(t)
	runs, err := s.RunsForScenario("nope")
	require.NoError(t, err)
	assert.Empty(t, runs)
}
