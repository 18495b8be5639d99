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

// Package job exposes a scenario run as an async, pollable handle, per
// spec.md §4.5 "Async job handle" and §3 JobSnapshot.
package job

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Snapshot is the immutable-once-terminal view of a job, spec.md §3.
type Snapshot struct {
	JobID  string `json:"jobId"`
	Status Status `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Handle is a single submitted job: a cancellable unit of work whose
// outcome is polled via Snapshot. Exactly one terminal transition ever
// happens; once terminal the snapshot value is fixed.
type Handle struct {
	mu       sync.Mutex
	snapshot Snapshot
	cancel   context.CancelFunc
	done     chan struct{}
}

// Snapshot returns the job's current state. Safe for concurrent callers;
// this is the job-polling suspension point spec.md §5 names.
func (h *Handle) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot
}

// Cancel requests the job stop at its next checked suspension point. It
// is safe to call multiple times and after the job has already finished.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done returns a channel closed when the job reaches a terminal state,
// for callers that want to block rather than poll.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) finishSucceeded(result any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.snapshot.Status != StatusRunning {
		return
	}
	h.snapshot = Snapshot{JobID: h.snapshot.JobID, Status: StatusSucceeded, Result: result}
	close(h.done)
}

func (h *Handle) finishFailed(errMsg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.snapshot.Status != StatusRunning {
		return
	}
	h.snapshot = Snapshot{JobID: h.snapshot.JobID, Status: StatusFailed, Error: errMsg}
	close(h.done)
}

func newHandle(cancel context.CancelFunc) *Handle {
	return &Handle{
		snapshot: Snapshot{JobID: uuid.NewString(), Status: StatusRunning},
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}
