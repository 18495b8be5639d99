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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"fixreplay/fixmsg"
	"fixreplay/linker"
	"fixreplay/scanner"
)

// sessionNames lists the distinct "<session>" stems of "<session>.in"
// files found directly under folder, sorted for determinism.
func sessionNames(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, errors.Wrapf(err, "read session folder %s", folder)
	}
	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".in") {
			name := strings.TrimSuffix(e.Name(), ".in")
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// scanSessionSide scans folder/<session>.<suffix>, returning one
// linker.Entry per recognized message (in file occurrence order),
// filtered to allowed msgTypes. A missing file yields an empty, non-error
// result: a session need not have both sides present.
func scanSessionSide(folder, session, suffix string, allowed map[string]bool, warnings *int) ([]linker.Entry, error) {
	path := filepath.Join(folder, session+"."+suffix)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	s, err := scanner.NewScanner(path, scanner.DefaultConfig())
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer s.Close()

	var entries []linker.Entry
	line := 0
	for {
		raw, ok, err := s.Next()
		if err != nil {
			return entries, errors.Wrapf(err, "scan %s", path)
		}
		if !ok {
			break
		}
		line++
		msg, err := fixmsg.Parse(raw.Payload)
		if err != nil {
			if warnings != nil {
				*warnings++
			}
			continue
		}
		mt, ok := msg.MsgType()
		if !ok || (allowed != nil && !allowed[mt]) {
			continue
		}
		entries = append(entries, linker.Entry{Line: line, Message: msg})
	}
	return entries, nil
}

func allowedSet(msgTypeFilter []string) map[string]bool {
	out := make(map[string]bool, len(msgTypeFilter))
	for _, mt := range msgTypeFilter {
		out[mt] = true
	}
	return out
}
