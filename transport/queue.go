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

package transport

import (
	"context"
	"sync"

	"fixreplay/fixmsg"
)

// Queue is a bounded, multi-producer/single-consumer buffer of received
// messages with a drop-oldest overflow policy. Adapted from
// fixclient/tradestore.go's ring buffer: same head/count/maxSize
// arithmetic, generalized from Trade values to *fixmsg.FixMessage and
// given a blocking Take so the single consumer can wait with a deadline
// instead of polling.
type Queue struct {
	mu       sync.Mutex
	buf      []*fixmsg.FixMessage
	head     int
	count    int
	maxSize  int
	overflow int
	closed   bool
	notify   chan struct{}
}

// NewQueue creates a Queue with the given bounded capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		buf:     make([]*fixmsg.FixMessage, capacity),
		maxSize: capacity,
		notify:  make(chan struct{}, 1),
	}
}

func (q *Queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Push inserts msg, overwriting the oldest entry and incrementing the
// overflow counter if the queue is already at capacity. Safe for
// concurrent callers (the transport may push from its own I/O goroutines).
func (q *Queue) Push(msg *fixmsg.FixMessage) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	idx := (q.head + q.count) % q.maxSize
	q.buf[idx] = msg
	if q.count < q.maxSize {
		q.count++
	} else {
		q.head = (q.head + 1) % q.maxSize
		q.overflow++
	}
	q.mu.Unlock()
	q.signal()
}

// tryTake attempts a non-blocking pop; drained additionally reports
// whether the queue is closed and permanently empty.
func (q *Queue) tryTake() (msg *fixmsg.FixMessage, ok bool, drained bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil, false, q.closed
	}
	msg = q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % q.maxSize
	q.count--
	return msg, true, false
}

// Take blocks until a message is available or ctx is done (callers
// typically pass a context with a receiveTimeoutMs deadline). ok is
// false if ctx expired or the queue was closed with nothing left to
// drain.
func (q *Queue) Take(ctx context.Context) (*fixmsg.FixMessage, bool) {
	if msg, ok, drained := q.tryTake(); ok || drained {
		return msg, ok
	}
	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-q.notify:
			if msg, ok, drained := q.tryTake(); ok || drained {
				return msg, ok
			}
		}
	}
}

// OverflowCount reports how many messages have been dropped for capacity
// since the queue was created.
func (q *Queue) OverflowCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.overflow
}

// Close marks the queue closed; pending Take callers blocked on an empty
// queue are released with ok=false. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.signal()
}
