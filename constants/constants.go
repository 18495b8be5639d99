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

// Package constants names the session-header tags and message types a
// replay harness needs to recognize regardless of which FIX dialect it
// is pointed at: it does not interpret business content (order status,
// execution type, reject reasons, and the like are specific to a single
// counterparty's dialect and have no fixed meaning here), only enough of
// the envelope to scan, link, and filter messages.
package constants

import "github.com/quickfixgo/quickfix"

// --- Message Types (Tag 35) ---
// All but MsgTypeLogon are the defaults scenario.DefaultMsgTypeFilter
// ships with.
const (
	MsgTypeLogon              = "A" // Logon
	MsgTypeSessionReject      = "3" // Session-level Reject
	MsgTypeBusinessReject     = "j" // Business Message Reject
	MsgTypeNewOrderSingle     = "D" // New Order Single
	MsgTypeOrderCancelRequest = "F" // Order Cancel Request
	MsgTypeOrderCancelReplace = "G" // Order Cancel/Replace Request
	MsgTypeExecutionReport    = "8" // Execution Report
)

// --- Protocol Constants ---
const (
	FixTimeFormat  = "20060102-15:04:05.000"
	FixBeginString = "FIXT.1.1"
)

// --- Session Header Tags ---
// Owned by the FIX engine on send (BeginString, BodyLength, MsgSeqNum,
// SendingTime, CheckSum, and the two CompID tags), so never copied onto
// a replayed message's outbound body. See HeaderTags below.
var (
	TagBeginString  = quickfix.Tag(8)
	TagBodyLength   = quickfix.Tag(9)
	TagMsgType      = quickfix.Tag(35)
	TagMsgSeqNum    = quickfix.Tag(34)
	TagSenderCompId = quickfix.Tag(49)
	TagTargetCompId = quickfix.Tag(56)
	TagSendingTime  = quickfix.Tag(52)
	TagCheckSum     = quickfix.Tag(10)
)

// --- Linker Candidate Tags ---
// The tags scenario.LoadConfig falls back to for linker.Config.CandidateTags
// when a scenario file doesn't name its own: the identifiers a FIX dialect
// most commonly carries a matching key on, across order-entry and
// execution-report traffic alike.
var (
	TagClOrdID      = quickfix.Tag(11)
	TagExecID       = quickfix.Tag(17)
	TagOrderID      = quickfix.Tag(37)
	TagOrigClOrdID  = quickfix.Tag(41)
	TagSide         = quickfix.Tag(54)
	TagSymbol       = quickfix.Tag(55)
	TagTransactTime = quickfix.Tag(60)
)

// HeaderTags is the set of session-owned tags, keyed by plain int so it
// can be indexed directly with fixmsg.FixMessage tag numbers (as
// quickfixadapter's toQuickfix does).
var HeaderTags = map[int]bool{
	int(TagBeginString):  true,
	int(TagBodyLength):   true,
	int(TagCheckSum):     true,
	int(TagMsgSeqNum):    true,
	int(TagMsgType):      true,
	int(TagSenderCompId): true,
	int(TagTargetCompId): true,
	int(TagSendingTime):  true,
}

// DefaultCandidateTags mirrors TagClOrdID..TagTransactTime as plain ints,
// in the order scenario.LoadConfig assigns them to linker.Config.
func DefaultCandidateTags() []int {
	return []int{
		int(TagClOrdID), int(TagOrigClOrdID), int(TagOrderID),
		int(TagExecID), int(TagSymbol), int(TagSide), int(TagTransactTime),
	}
}

// DefaultCompareExcludeTags are the tags a comparison ignores by default:
// header bookkeeping plus timestamps that are expected to differ between
// a capture and a replay of it. scenario.LoadConfig appends tag 122
// (OrigSendingTime) itself, since it has no other use in this package.
func DefaultCompareExcludeTags() []int {
	return []int{
		int(TagBeginString), int(TagBodyLength), int(TagCheckSum),
		int(TagMsgSeqNum), int(TagSendingTime), int(TagTransactTime),
	}
}

// DefaultMsgTypeFilter mirrors the msgType constants above, except
// MsgTypeLogon, as a slice, the shape scenario.Config.MsgTypeFilter needs.
func DefaultMsgTypeFilter() []string {
	return []string{
		MsgTypeNewOrderSingle, MsgTypeOrderCancelReplace, MsgTypeOrderCancelRequest,
		MsgTypeExecutionReport, MsgTypeSessionReject, MsgTypeBusinessReject,
	}
}
