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

package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_SucceedsWithResult(t *testing.T) {
	r := NewRunner(2, nil)
	h := r.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return "ok", nil
	})

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("job did not finish")
	}

	snap := h.Snapshot()
	assert.Equal(t, StatusSucceeded, snap.Status)
	assert.Equal(t, "ok", snap.Result)
	assert.NotEmpty(t, snap.JobID)
}

func TestRunner_FailsWithErrorMessage(t *testing.T) {
	r := NewRunner(2, nil)
	h := r.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("boom")
	})

	<-h.Done()
	snap := h.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "boom", snap.Error)
}

func TestRunner_CancelTransitionsToFailedCancelled(t *testing.T) {
	r := NewRunner(2, nil)
	started := make(chan struct{})
	h := r.Submit(context.Background(), func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	<-started
	h.Cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("job did not finish after cancel")
	}

	snap := h.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "cancelled", snap.Error)
}

func TestRunner_SnapshotImmutableOnceTerminal(t *testing.T) {
	r := NewRunner(1, nil)
	h := r.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return 1, nil
	})
	<-h.Done()

	first := h.Snapshot()
	h.Cancel() // no-op: already terminal
	second := h.Snapshot()
	assert.Equal(t, first, second)
}

func TestRunner_RespectsConcurrencyLimit(t *testing.T) {
	r := NewRunner(1, nil)
	var running int32
	var maxObserved int32
	release := make(chan struct{})

	block := func(ctx context.Context) (any, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&maxObserved)
			if n <= old || atomic.CompareAndSwapInt32(&maxObserved, old, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&running, -1)
		return nil, nil
	}

	h1 := r.Submit(context.Background(), block)
	h2 := r.Submit(context.Background(), block)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxObserved))

	close(release)
	require.Eventually(t, func() bool {
		return h1.Snapshot().Status != StatusRunning && h2.Snapshot().Status != StatusRunning
	}, time.Second, 5*time.Millisecond)
}
