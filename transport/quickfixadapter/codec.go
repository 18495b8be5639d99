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

package quickfixadapter

import (
	"github.com/pkg/errors"
	"github.com/quickfixgo/quickfix"

	"fixreplay/constants"
	"fixreplay/fixmsg"
)

// toQuickfix rebuilds a quickfix.Message from a fixmsg.FixMessage's tags,
// letting quickfix itself stamp session-owned header fields (constants.
// HeaderTags) on send rather than copying them onto the outbound body.
func toQuickfix(message *fixmsg.FixMessage) (*quickfix.Message, error) {
	msgType, ok := message.MsgType()
	if !ok {
		return nil, errors.New("message has no MsgType (tag 35)")
	}

	qmsg := quickfix.NewMessage()
	qmsg.Header.SetField(constants.TagMsgType, quickfix.FIXString(msgType))
	for _, tag := range message.Tags() {
		if tag == fixmsg.TagMsgType || constants.HeaderTags[tag] {
			continue
		}
		value, _ := message.Get(tag)
		qmsg.Body.SetField(quickfix.Tag(tag), quickfix.FIXString(value))
	}
	return qmsg, nil
}
