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

// Package linker discovers, per FIX msgType, an ordered tag list whose
// values uniquely pair recorded "in" messages to "out" messages, then
// emits the pairing.
package linker

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Normalizer transforms a tag value before it is hashed into a link key.
// Per spec.md §9, this is a tagged variant (Trim, RegexReplace, Compose),
// not a reflective per-tag object, so every normalizer is known and
// pre-compiled once per run.
type Normalizer interface {
	Apply(value string) string
}

// Trim strips leading/trailing whitespace.
type Trim struct{}

func (Trim) Apply(value string) string { return strings.TrimSpace(value) }

// RegexReplace applies a compiled regular expression replacement.
type RegexReplace struct {
	re          *regexp.Regexp
	replacement string
}

// NewRegexReplace compiles pattern once; used at config-load time so a bad
// pattern surfaces as a malformed-config error (spec.md §7 kind 2) rather
// than failing mid-run.
func NewRegexReplace(pattern, replacement string) (*RegexReplace, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "linker: invalid normalizer pattern %q", pattern)
	}
	return &RegexReplace{re: re, replacement: replacement}, nil
}

func (r *RegexReplace) Apply(value string) string {
	return r.re.ReplaceAllString(value, r.replacement)
}

// Compose applies a sequence of normalizers left to right.
type Compose struct {
	Steps []Normalizer
}

func (c Compose) Apply(value string) string {
	for _, step := range c.Steps {
		value = step.Apply(value)
	}
	return value
}

func normalize(tag int, value string, normalizers map[int]Normalizer) string {
	if n, ok := normalizers[tag]; ok {
		return n.Apply(value)
	}
	return value
}
