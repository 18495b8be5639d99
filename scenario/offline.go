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
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"fixreplay/fixmsg"
	"fixreplay/linker"
)

// RunOffline implements spec.md §4.5 offline mode: for each session found
// in expectedFolder ("<session>.in"/"<session>.out"), the expected
// out-messages are linked directly against the actual out-messages
// (actualFolder if set, else inputFolder doubles as the actual recording
// under test) — both sides carry the same response msgTypes, keyed by
// whatever identifying tag (ClOrdID, OrderID, ExecID, ...) the linker
// discovers — and each linked pair is comparator-diffed. The in-files are
// scanned too, so a malformed input line still surfaces as a scan
// warning, but they carry no request/response correlation of their own:
// an order request and its execution report are different msgTypes, and
// linker.Link only pairs messages of the same msgType within one run.
// Reports are written to the configured paths and also returned.
func RunOffline(cfg *Config, log *zap.Logger) (*DiffReport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	linkerCfg, err := cfg.linkerConfig()
	if err != nil {
		return nil, errors.Wrap(err, "scenario: malformed linker config")
	}
	comparator := cfg.compareConfig()
	allowed := allowedSet(cfg.MsgTypeFilter)

	actualFolder := cfg.ActualFolder
	if actualFolder == "" {
		actualFolder = cfg.InputFolder
	}

	sessions, err := sessionNames(cfg.ExpectedFolder)
	if err != nil {
		return nil, err
	}

	report := newDiffReport()
	report.Session = cfg.Name
	var scanWarnings int

	for _, session := range sessions {
		log.Info("offline session", zap.String("session", session))

		if _, err := scanSessionSide(cfg.ExpectedFolder, session, "in", allowed, &scanWarnings); err != nil {
			return nil, errors.Wrapf(err, "session %s: scan expected.in", session)
		}
		expOut, err := scanSessionSide(cfg.ExpectedFolder, session, "out", allowed, &scanWarnings)
		if err != nil {
			return nil, errors.Wrapf(err, "session %s: scan expected.out", session)
		}
		if _, err := scanSessionSide(actualFolder, session, "in", allowed, &scanWarnings); err != nil {
			return nil, errors.Wrapf(err, "session %s: scan actual.in", session)
		}
		actOut, err := scanSessionSide(actualFolder, session, "out", allowed, &scanWarnings)
		if err != nil {
			return nil, errors.Wrapf(err, "session %s: scan actual.out", session)
		}

		respReport := linker.Link(expOut, actOut, linkerCfg)
		for _, s := range respReport.Strategies {
			report.Ambiguous += s.Ambiguous
		}
		if report.LinkReport == nil {
			report.LinkReport = respReport
		}

		expOutByLine := byLine(expOut)
		actOutByLine := byLine(actOut)

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

	timestamp := time.Now().UTC().Format("20060102-150405.000")
	timestamp = removeDots(timestamp)
	path := renderReportPath(cfg.Reports.Folder, cfg.Reports.RunOfflineJSON, cfg.Name, timestamp)
	if err := writeJSON(path, report); err != nil {
		return report, err
	}
	return report, nil
}

func byLine(entries []linker.Entry) map[int]*fixmsg.FixMessage {
	out := make(map[int]*fixmsg.FixMessage, len(entries))
	for _, e := range entries {
		out[e.Line] = e.Message
	}
	return out
}

// removeDots collapses "20060102-150405.000" into the spec's
// "yyyyMMdd-HHmmssSSS" timestamp shape (no separator before milliseconds).
func removeDots(ts string) string {
	out := make([]byte, 0, len(ts))
	for i := 0; i < len(ts); i++ {
		if ts[i] == '.' {
			continue
		}
		out = append(out, ts[i])
	}
	return string(out)
}
