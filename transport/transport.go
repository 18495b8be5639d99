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

// Package transport defines the FixTransport contract the online scenario
// runner drives, plus the bounded receive queue shared between a
// transport's receive callback and the runner that consumes it.
package transport

import (
	"context"

	"fixreplay/fixmsg"
)

// SessionKey identifies one side of a FIX session.
type SessionKey struct {
	SenderCompID string
	TargetCompID string
}

// SessionConfig carries both session legs plus adapter-specific settings
// (host, port, timeouts) that have no fixed schema across transports.
type SessionConfig struct {
	Entry      SessionKey
	Exit       SessionKey
	Properties map[string]string
}

// ReceiveFunc is invoked by a transport for every message it receives, on
// whatever goroutine the transport's own I/O runs on.
type ReceiveFunc func(*fixmsg.FixMessage)

// FixTransport is the external collaborator contract for online replay,
// per spec.md §6. Concrete adapters (see package quickfixadapter) wrap a
// real FIX engine; tests use ScriptedTransport.
type FixTransport interface {
	// Connect blocks until the session is established or returns an error.
	Connect(ctx context.Context, cfg SessionConfig) error
	// OnReceive registers the single consumer callback for this transport.
	// Calling it more than once replaces the prior registration.
	OnReceive(fn ReceiveFunc)
	// Send enqueues message for transmission, blocking until accepted.
	Send(ctx context.Context, message *fixmsg.FixMessage) error
	// Close idempotently releases the transport.
	Close() error
}
