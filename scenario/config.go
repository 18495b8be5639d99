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

// Package scenario drives a replay run, offline (directory of expected/
// actual/input files) or online (a live transport.FixTransport), per
// spec.md §4.5. A Config is loaded and schema-validated before any
// session input is touched, so a malformed scenario file fails fast with
// the offending field name rather than mid-run.
package scenario

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"fixreplay/compare"
	"fixreplay/constants"
	"fixreplay/linker"
)

// DefaultMsgTypeFilter is the allowed msgType set when a scenario file
// omits msgTypeFilter.
func DefaultMsgTypeFilter() []string { return constants.DefaultMsgTypeFilter() }

// ReportPaths names report output files, each may contain the
// placeholders {scenario} and {timestamp} (format yyyyMMdd-HHmmssSSS).
// RunOnlineJunit/RunOfflineJunit are part of the declarative schema
// (spec.md §6) but are not written by RunOffline or RunOnline: JUnit/XML report emission is
// out of scope for this harness.
type ReportPaths struct {
	Folder          string `json:"folder"`
	RunOnlineJSON   string `json:"run_online_json"`
	RunOnlineJunit  string `json:"run_online_junit"`
	RunOfflineJSON  string `json:"run_offline_json"`
	RunOfflineJunit string `json:"run_offline_junit"`
}

// LinkerConfig is the JSON shape of linker.Config.
type LinkerConfig struct {
	CandidateTags               []int                        `json:"candidateTags"`
	CandidateCombinationMaxSize int                          `json:"candidateCombinationMaxSize"`
	Overrides                   map[string][][]int           `json:"overrides,omitempty"`
	Normalizers                 map[string][]NormalizerStep  `json:"normalizers,omitempty"`
}

// NormalizerStep is one step of a per-tag normalizer composition:
// {"trim": true} or {"regexReplace": {"pattern": "...", "replacement": "..."}}.
type NormalizerStep struct {
	Trim         bool                `json:"trim,omitempty"`
	RegexReplace *RegexReplaceConfig `json:"regexReplace,omitempty"`
}

type RegexReplaceConfig struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
}

// CompareConfig is the JSON shape of compare.Comparator's construction
// arguments.
type CompareConfig struct {
	DefaultExcludeTags []int `json:"defaultExcludeTags"`
}

// Config is the full declarative scenario file shape, spec.md §6.
type Config struct {
	Name            string        `json:"name"`
	InputFolder     string        `json:"inputFolder"`
	ExpectedFolder  string        `json:"expectedFolder"`
	ActualFolder    string        `json:"actualFolder,omitempty"`
	Reports         ReportPaths   `json:"reports"`
	MsgTypeFilter   []string      `json:"msgTypeFilter,omitempty"`
	Linker          LinkerConfig  `json:"linker"`
	Compare         CompareConfig `json:"compare"`
	QueueCapacity   int           `json:"queueCapacity,omitempty"`
	ReceiveTimeout  int           `json:"receiveTimeoutMs,omitempty"`
	// SessionMappingRules is carried through unparsed; nothing in this
	// module reads it.
	SessionMappingRules []json.RawMessage `json:"sessionMappingRules,omitempty"`
}

const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "inputFolder", "expectedFolder", "reports"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "inputFolder": {"type": "string", "minLength": 1},
    "expectedFolder": {"type": "string", "minLength": 1},
    "actualFolder": {"type": "string"},
    "reports": {
      "type": "object",
      "properties": {
        "folder": {"type": "string"},
        "run_online_json": {"type": "string"},
        "run_online_junit": {"type": "string"},
        "run_offline_json": {"type": "string"},
        "run_offline_junit": {"type": "string"}
      }
    },
    "msgTypeFilter": {"type": "array", "items": {"type": "string"}},
    "linker": {
      "type": "object",
      "properties": {
        "candidateTags": {"type": "array", "items": {"type": "integer"}},
        "candidateCombinationMaxSize": {"type": "integer", "minimum": 1}
      }
    },
    "compare": {
      "type": "object",
      "properties": {
        "defaultExcludeTags": {"type": "array", "items": {"type": "integer"}}
      }
    },
    "queueCapacity": {"type": "integer", "minimum": 1},
    "receiveTimeoutMs": {"type": "integer", "minimum": 1}
  }
}`

var compiledSchema *jsonschema.Schema

func schema() (*jsonschema.Schema, error) {
	if compiledSchema != nil {
		return compiledSchema, nil
	}
	sch, err := jsonschema.CompileString("scenario-config.json", configSchema)
	if err != nil {
		return nil, errors.Wrap(err, "compile scenario config schema")
	}
	compiledSchema = sch
	return sch, nil
}

// LoadConfig reads and schema-validates a scenario file at path, per
// spec.md §7 error kind 2 (malformed config surfaces the offending field).
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scenario config %s", path)
	}

	sch, err := schema()
	if err != nil {
		return nil, err
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, errors.Wrap(err, "malformed scenario config: invalid JSON")
	}
	if err := sch.Validate(instance); err != nil {
		return nil, errors.Wrap(err, "malformed scenario config")
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode scenario config")
	}
	if len(cfg.MsgTypeFilter) == 0 {
		cfg.MsgTypeFilter = DefaultMsgTypeFilter()
	}
	if cfg.Linker.CandidateCombinationMaxSize == 0 {
		cfg.Linker.CandidateCombinationMaxSize = 2
	}
	if len(cfg.Linker.CandidateTags) == 0 {
		cfg.Linker.CandidateTags = constants.DefaultCandidateTags()
	}
	if len(cfg.Compare.DefaultExcludeTags) == 0 {
		cfg.Compare.DefaultExcludeTags = append(constants.DefaultCompareExcludeTags(), 122) // OrigSendingTime
	}
	return &cfg, nil
}

// linkerConfig builds a linker.Config from the JSON shape, compiling any
// configured regex normalizer steps.
func (c *Config) linkerConfig() (linker.Config, error) {
	normalizers := make(map[int]linker.Normalizer)
	for tagStr, steps := range c.Linker.Normalizers {
		tag, err := strconv.Atoi(tagStr)
		if err != nil {
			return linker.Config{}, errors.Wrapf(err, "normalizers key %q is not a tag number", tagStr)
		}
		compiled := make([]linker.Normalizer, 0, len(steps))
		for _, step := range steps {
			if step.Trim {
				compiled = append(compiled, linker.Trim{})
			}
			if step.RegexReplace != nil {
				rr, err := linker.NewRegexReplace(step.RegexReplace.Pattern, step.RegexReplace.Replacement)
				if err != nil {
					return linker.Config{}, errors.Wrapf(err, "tag %s regexReplace", tagStr)
				}
				compiled = append(compiled, rr)
			}
		}
		normalizers[tag] = linker.Compose{Steps: compiled}
	}

	var overrides map[string][][]int
	if len(c.Linker.Overrides) > 0 {
		overrides = c.Linker.Overrides
	}

	return linker.Config{
		CandidateTags:               c.Linker.CandidateTags,
		CandidateCombinationMaxSize: c.Linker.CandidateCombinationMaxSize,
		OverrideCandidates:          overrides,
		Normalizers:                 normalizers,
	}, nil
}

// compareConfig builds a compare.Comparator from the JSON shape.
func (c *Config) compareConfig() *compare.Comparator {
	excluded := make(map[int]bool, len(c.Compare.DefaultExcludeTags))
	for _, t := range c.Compare.DefaultExcludeTags {
		excluded[t] = true
	}
	return compare.NewComparator(excluded, nil)
}
