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

package scenario

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"fixreplay/linker"
	"fixreplay/transport"
)

const (
	defaultQueueCapacity  = 1024
	defaultReceiveTimeout = 2 * time.Second
)

// RunOnline implements spec.md §4.5 online mode: it drives a live
// transport.FixTransport with the input side's messages, captures
// responses in a bounded receive queue, then links the expected
// out-messages directly against the captured responses and diffs each
// linked pair exactly as RunOffline does. The transport is always closed
// on exit, per spec.md §5 "scoped resources", regardless of how the run
// ends.
func RunOnline(ctx context.Context, cfg *Config, tr transport.FixTransport, sessionCfg transport.SessionConfig, log *zap.Logger) (report *DiffReport, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	defer func() {
		if cerr := tr.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "scenario: transport close failed")
		}
	}()
	linkerCfg, err := cfg.linkerConfig()
	if err != nil {
		return nil, errors.Wrap(err, "scenario: malformed linker config")
	}
	comparator := cfg.compareConfig()
	allowed := allowedSet(cfg.MsgTypeFilter)

	queueCapacity := cfg.QueueCapacity
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueCapacity
	}
	receiveTimeout := defaultReceiveTimeout
	if cfg.ReceiveTimeout > 0 {
		receiveTimeout = time.Duration(cfg.ReceiveTimeout) * time.Millisecond
	}

	queue := transport.NewQueue(queueCapacity)
	defer queue.Close()

	tr.OnReceive(queue.Push)

	if err := tr.Connect(ctx, sessionCfg); err != nil {
		return nil, errors.Wrap(err, "scenario: transport connect failed")
	}

	sessions, err := sessionNames(cfg.InputFolder)
	if err != nil {
		return nil, err
	}

	report = newDiffReport()
	report.Session = cfg.Name
	var scanWarnings int

	for _, session := range sessions {
		if ctx.Err() != nil {
			return report, errors.Wrap(ctx.Err(), "cancelled")
		}
		log.Info("online session", zap.String("session", session))

		in, err := scanSessionSide(cfg.InputFolder, session, "in", allowed, &scanWarnings)
		if err != nil {
			return report, errors.Wrapf(err, "session %s: scan input.in", session)
		}

		var captured []linker.Entry
		line := 0
		for _, e := range in {
			if ctx.Err() != nil {
				return report, errors.Wrap(ctx.Err(), "cancelled")
			}
			if err := tr.Send(ctx, e.Message); err != nil {
				return report, errors.Wrapf(err, "session %s: send failed", session)
			}
			deadline, cancel := context.WithTimeout(ctx, receiveTimeout)
			msg, ok := queue.Take(deadline)
			cancel()
			if !ok {
				continue // spec.md §7 kind-5: receive timeout is non-fatal
			}
			line++
			captured = append(captured, linker.Entry{Line: line, Message: msg})
		}
		report.QueueOverflow = queue.OverflowCount()

		expOut, err := scanSessionSide(cfg.ExpectedFolder, session, "out", allowed, &scanWarnings)
		if err != nil {
			return report, errors.Wrapf(err, "session %s: scan expected.out", session)
		}

		respReport := linker.Link(expOut, captured, linkerCfg)
		for _, s := range respReport.Strategies {
			report.Ambiguous += s.Ambiguous
		}
		if report.LinkReport == nil {
			report.LinkReport = respReport
		}

		expOutByLine := byLine(expOut)
		actOutByLine := byLine(captured)

		for _, link := range respReport.Links {
			expMsg := expOutByLine[link.InLine]
			actMsg := actOutByLine[link.OutLine]
			d := comparator.Diff(expMsg, actMsg)
			report.add(DiffMessage{ID: link.Key, MsgType: link.MsgType, DiffMessage: d})
		}
		report.UnmatchedExpected += len(respReport.UnmatchedIn)
		report.UnmatchedActual += len(respReport.UnmatchedOut)
	}

	report.ScanWarnings = scanWarnings
	report.finalize()

	timestamp := removeDots(time.Now().UTC().Format("20060102-150405.000"))
	path := renderReportPath(cfg.Reports.Folder, cfg.Reports.RunOnlineJSON, cfg.Name, timestamp)
	if werr := writeJSON(path, report); werr != nil {
		return report, werr
	}
	return report, nil
}
