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

// Package quickfixadapter implements transport.FixTransport over a real
// github.com/quickfixgo/quickfix session, generalizing fixclient.FixApp's
// callback wiring from a market-data client to a transparent forwarder:
// every application message that arrives is handed to the registered
// transport.ReceiveFunc as a fixmsg.FixMessage, unparsed for any specific
// msgType.
package quickfixadapter

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"

	"fixreplay/fixmsg"
	"fixreplay/transport"
)

// Adapter is a transport.FixTransport backed by a quickfix.Initiator.
// It implements quickfix.Application directly, the same shape as
// fixclient.FixApp, so the FIX engine drives it through the same
// OnCreate/OnLogon/OnLogout/FromApp/ToApp/FromAdmin/ToAdmin callbacks.
type Adapter struct {
	log *zap.Logger

	settingsPath string
	logonTimeout time.Duration

	sessionID  quickfix.SessionID
	initiator  *quickfix.Initiator
	onReceive  transport.ReceiveFunc
	logonDone  chan struct{}
	logonOnce  bool
	shouldExit bool
}

// New builds an Adapter that reads its session settings (SenderCompID,
// TargetCompID, socket endpoint, and any adapter-specific Properties from
// the transport.SessionConfig passed to Connect) from a quickfix settings
// file at settingsPath, the same cfg-file-driven bootstrap the quickfix
// library itself expects.
func New(settingsPath string, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		log:          log,
		settingsPath: settingsPath,
		logonTimeout: 10 * time.Second,
		logonDone:    make(chan struct{}),
	}
}

// Connect starts a quickfix.Initiator against settingsPath and blocks
// until logon completes, ctx is done, or the logon timeout elapses.
func (a *Adapter) Connect(ctx context.Context, cfg transport.SessionConfig) error {
	settings, err := readSettings(a.settingsPath, cfg)
	if err != nil {
		return errors.Wrap(err, "quickfixadapter: read settings")
	}

	storeFactory := quickfix.NewMemoryStoreFactory()
	logFactory, err := quickfix.NewFileLogFactory(settings)
	if err != nil {
		logFactory = quickfix.NewNullLogFactory()
	}

	initiator, err := quickfix.NewInitiator(a, storeFactory, settings, logFactory)
	if err != nil {
		return errors.Wrap(err, "quickfixadapter: new initiator")
	}
	a.initiator = initiator

	if err := initiator.Start(); err != nil {
		return errors.Wrap(err, "quickfixadapter: start initiator")
	}

	select {
	case <-a.logonDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.logonTimeout):
		return errors.New("quickfixadapter: logon timed out")
	}
}

// OnReceive registers fn as the single consumer of inbound application
// messages. Calling it again replaces the prior registration.
func (a *Adapter) OnReceive(fn transport.ReceiveFunc) {
	a.onReceive = fn
}

// Send transmits message to the active session via quickfix.SendToTarget.
func (a *Adapter) Send(_ context.Context, message *fixmsg.FixMessage) error {
	qmsg, err := toQuickfix(message)
	if err != nil {
		return errors.Wrap(err, "quickfixadapter: encode outbound message")
	}
	if err := quickfix.SendToTarget(qmsg, a.sessionID); err != nil {
		return errors.Wrap(err, "quickfixadapter: send")
	}
	return nil
}

// Close stops the underlying initiator, if one was started.
func (a *Adapter) Close() error {
	if a.initiator != nil {
		a.initiator.Stop()
	}
	return nil
}

// --- quickfix.Application ---

func (a *Adapter) OnCreate(sessionID quickfix.SessionID) {
	a.sessionID = sessionID
}

func (a *Adapter) OnLogon(sessionID quickfix.SessionID) {
	a.sessionID = sessionID
	a.log.Info("logon", zap.String("session", sessionID.String()))
	if !a.logonOnce {
		a.logonOnce = true
		close(a.logonDone)
	}
}

func (a *Adapter) OnLogout(sessionID quickfix.SessionID) {
	a.log.Info("logout", zap.String("session", sessionID.String()))
	a.shouldExit = true
}

func (a *Adapter) ToAdmin(_ *quickfix.Message, _ quickfix.SessionID) {}

func (a *Adapter) FromAdmin(_ *quickfix.Message, _ quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

func (a *Adapter) ToApp(_ *quickfix.Message, _ quickfix.SessionID) error {
	return nil
}

// FromApp forwards every application-level message to the registered
// receive callback, parsed into the same fixmsg.FixMessage shape the
// offline scanner produces, so scenario/job code never needs to know
// whether a message came from a log file or a live session.
func (a *Adapter) FromApp(msg *quickfix.Message, _ quickfix.SessionID) quickfix.MessageRejectError {
	parsed, err := fixmsg.Parse([]byte(msg.String()))
	if err != nil {
		a.log.Warn("dropping unparseable inbound message", zap.Error(err))
		return nil
	}
	if a.onReceive != nil {
		a.onReceive(parsed)
	}
	return nil
}
