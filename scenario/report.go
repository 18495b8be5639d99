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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"fixreplay/compare"
	"fixreplay/linker"
)

// DiffMessage is one linked pair's comparison result, identified by the
// key the linker paired it on (spec.md §3 DiffMessage.id).
type DiffMessage struct {
	ID      string `json:"id"`
	MsgType string `json:"msgType"`
	compare.DiffMessage
}

// DiffReport is the scenario-wide outcome of a run, spec.md §3 DiffReport.
type DiffReport struct {
	Session            string        `json:"session,omitempty"`
	Messages           []DiffMessage `json:"messages"`
	MatchedComparisons int           `json:"matchedComparisons"`
	UnmatchedExpected  int           `json:"unmatchedExpected"`
	UnmatchedActual    int           `json:"unmatchedActual"`
	Ambiguous          int           `json:"ambiguous"`
	FailedMessages     int           `json:"failedMessages"`
	Passed             bool          `json:"passed"`

	LinkReport *linker.LinkReport `json:"linkReport,omitempty"`

	QueueOverflow int `json:"queueOverflowCount,omitempty"`
	ScanWarnings  int `json:"scanWarnings,omitempty"`
}

func newDiffReport() *DiffReport {
	return &DiffReport{Passed: true}
}

func (r *DiffReport) add(d DiffMessage) {
	r.Messages = append(r.Messages, d)
	r.MatchedComparisons++
	if !d.Passed {
		r.FailedMessages++
		r.Passed = false
	}
}

func (r *DiffReport) finalize() {
	if r.UnmatchedExpected > 0 || r.UnmatchedActual > 0 || r.Ambiguous > 0 {
		r.Passed = false
	}
}

// renderReportPath substitutes {scenario} and {timestamp} placeholders
// into a configured report path, per spec.md §6.
func renderReportPath(folder, pattern, scenarioName, timestamp string) string {
	name := strings.ReplaceAll(pattern, "{scenario}", scenarioName)
	name = strings.ReplaceAll(name, "{timestamp}", timestamp)
	if folder == "" {
		return name
	}
	return filepath.Join(folder, name)
}

// writeJSON writes v as indented JSON to path, creating parent directories
// as needed. Map keys are written in sorted order; struct fields keep their
// declaration order rather than being sorted by name.
func writeJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create report directory %s", dir)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write report %s", path)
	}
	return nil
}
