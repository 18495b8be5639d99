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

// ScriptedTransport is a FixTransport double driven by a fixed response
// script, keyed by the msgType of the message it is replying to. It
// exists for exercising the online scenario runner (spec.md §8 S6)
// without a live FIX engine.
type ScriptedTransport struct {
	mu sync.Mutex

	Script map[string][]*fixmsg.FixMessage

	ConnectCalls int
	SendCalls    int
	CloseCalls   int
	LastConfig   SessionConfig

	onReceive ReceiveFunc
}

// NewScriptedTransport builds a ScriptedTransport that echoes script[msgType]
// (in order, one per Send of that type) to the registered receive callback.
func NewScriptedTransport(script map[string][]*fixmsg.FixMessage) *ScriptedTransport {
	return &ScriptedTransport{Script: script}
}

func (s *ScriptedTransport) Connect(_ context.Context, cfg SessionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ConnectCalls++
	s.LastConfig = cfg
	return nil
}

func (s *ScriptedTransport) OnReceive(fn ReceiveFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReceive = fn
}

func (s *ScriptedTransport) Send(_ context.Context, message *fixmsg.FixMessage) error {
	s.mu.Lock()
	s.SendCalls++
	mt, _ := message.MsgType()
	var reply *fixmsg.FixMessage
	if remaining := s.Script[mt]; len(remaining) > 0 {
		reply = remaining[0]
		s.Script[mt] = remaining[1:]
	}
	cb := s.onReceive
	s.mu.Unlock()

	if reply != nil && cb != nil {
		cb(reply)
	}
	return nil
}

func (s *ScriptedTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	return nil
}
