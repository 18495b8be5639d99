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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixreplay/fixmsg"
	"fixreplay/transport"
)

func writeSessionFile(t *testing.T, dir, session, suffix, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, session+"."+suffix), []byte(body), 0o644))
}

func baseConfig(t *testing.T, inputFolder, expectedFolder, actualFolder string) *Config {
	t.Helper()
	reportDir := t.TempDir()
	return &Config{
		Name:           "demo",
		InputFolder:    inputFolder,
		ExpectedFolder: expectedFolder,
		ActualFolder:   actualFolder,
		Reports: ReportPaths{
			Folder:         reportDir,
			RunOfflineJSON: "{scenario}-offline-{timestamp}.json",
			RunOnlineJSON:  "{scenario}-online-{timestamp}.json",
		},
		MsgTypeFilter: DefaultMsgTypeFilter(),
		Linker: LinkerConfig{
			CandidateTags:               []int{11, 41, 37, 17, 55, 54, 60},
			CandidateCombinationMaxSize: 2,
		},
		Compare: CompareConfig{
			DefaultExcludeTags: []int{8, 9, 10, 34, 52, 60, 122},
		},
	}
}

func TestLoadConfig_ValidatesAndFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.json")
	body := `{
		"name": "demo",
		"inputFolder": "in",
		"expectedFolder": "expected",
		"reports": {"folder": "reports", "run_offline_json": "{scenario}.json"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultMsgTypeFilter(), cfg.MsgTypeFilter)
	assert.Equal(t, 2, cfg.Linker.CandidateCombinationMaxSize)
	assert.Equal(t, []int{11, 41, 37, 17, 55, 54, 60}, cfg.Linker.CandidateTags)
	assert.Equal(t, []int{8, 9, 10, 34, 52, 60, 122}, cfg.Compare.DefaultExcludeTags)
}

func TestLoadConfig_RejectsMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "demo"}`), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestRenderReportPath_SubstitutesPlaceholders(t *testing.T) {
	got := renderReportPath("/reports", "{scenario}-{timestamp}.json", "demo", "20260228-100000000")
	assert.Equal(t, "/reports/demo-20260228-100000000.json", got)
}

// TestRunOffline_LinksAndDiffsSessions covers the offline path end to end:
// an expected session is compared against an actual session recorded
// under a separate folder, and the resulting DiffReport reflects the one
// differing tag between them.
func TestRunOffline_LinksAndDiffsSessions(t *testing.T) {
	expectedDir := t.TempDir()
	actualDir := t.TempDir()

	writeSessionFile(t, expectedDir, "s1", "in", "8=FIX.4.4\x0135=D\x0111=ORD-1\x0110=000\x01")
	writeSessionFile(t, expectedDir, "s1", "out", "8=FIX.4.4\x0135=D\x0111=ORD-1\x0155=MSFT\x0110=000\x01")
	writeSessionFile(t, actualDir, "s1", "in", "8=FIX.4.4\x0135=D\x0111=ORD-1\x0110=000\x01")
	writeSessionFile(t, actualDir, "s1", "out", "8=FIX.4.4\x0135=D\x0111=ORD-1\x0155=AAPL\x0110=000\x01")

	cfg := baseConfig(t, "", expectedDir, actualDir)
	cfg.Linker.CandidateCombinationMaxSize = 1

	report, err := RunOffline(cfg, nil)
	require.NoError(t, err)
	require.Len(t, report.Messages, 1)
	assert.False(t, report.Passed)
	assert.False(t, report.Messages[0].Passed)
	assert.Equal(t, "D", report.Messages[0].MsgType)
	diff, ok := report.Messages[0].DifferingValues[55]
	require.True(t, ok)
	assert.Equal(t, "MSFT", diff.Expected)
	assert.Equal(t, "AAPL", diff.Actual)

	written, err := os.ReadFile(filepath.Join(cfg.Reports.Folder, mustGlobFirst(t, cfg.Reports.Folder)))
	require.NoError(t, err)
	var fromDisk DiffReport
	require.NoError(t, json.Unmarshal(written, &fromDisk))
	assert.Equal(t, report.Passed, fromDisk.Passed)
}

func mustGlobFirst(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[0].Name()
}

// TestRunOnline_DrivesScriptedTransport covers S6's shape: a scripted
// transport echoes a canned execution report for each order sent, and the
// online run links/diffs those captured responses against the expected
// session exactly as the offline path would.
func TestRunOnline_DrivesScriptedTransport(t *testing.T) {
	inputDir := t.TempDir()
	expectedDir := t.TempDir()

	writeSessionFile(t, inputDir, "s1", "in", "8=FIX.4.4\x0135=D\x0111=ORD-1\x0110=000\x01")
	writeSessionFile(t, expectedDir, "s1", "in", "8=FIX.4.4\x0135=D\x0111=ORD-1\x0110=000\x01")
	writeSessionFile(t, expectedDir, "s1", "out", "8=FIX.4.4\x0135=8\x0111=ORD-1\x0139=0\x0110=000\x01")

	reply, err := fixmsg.Parse([]byte("35=8\x0111=ORD-1\x0139=0\x0110=000\x01"))
	require.NoError(t, err)

	tr := transport.NewScriptedTransport(map[string][]*fixmsg.FixMessage{
		"D": {reply},
	})

	cfg := baseConfig(t, inputDir, expectedDir, "")
	cfg.Linker.CandidateCombinationMaxSize = 1
	cfg.ReceiveTimeout = 200

	sessionCfg := transport.SessionConfig{
		Entry: transport.SessionKey{SenderCompID: "REPLAY", TargetCompID: "VENUE"},
	}

	report, err := RunOnline(context.Background(), cfg, tr, sessionCfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.ConnectCalls)
	assert.Equal(t, 1, tr.SendCalls)
	assert.Equal(t, 1, tr.CloseCalls)
	require.Len(t, report.Messages, 1)
	assert.True(t, report.Messages[0].Passed)
	assert.True(t, report.Passed)
}

func TestRunOnline_ReceiveTimeoutIsNonFatal(t *testing.T) {
	inputDir := t.TempDir()
	expectedDir := t.TempDir()
	writeSessionFile(t, inputDir, "s1", "in", "8=FIX.4.4\x0135=D\x0111=ORD-1\x0110=000\x01")
	writeSessionFile(t, expectedDir, "s1", "in", "8=FIX.4.4\x0135=D\x0111=ORD-1\x0110=000\x01")
	writeSessionFile(t, expectedDir, "s1", "out", "8=FIX.4.4\x0135=8\x0111=ORD-1\x0139=0\x0110=000\x01")

	tr := transport.NewScriptedTransport(map[string][]*fixmsg.FixMessage{})
	cfg := baseConfig(t, inputDir, expectedDir, "")
	cfg.Linker.CandidateCombinationMaxSize = 1
	cfg.ReceiveTimeout = 20

	start := time.Now()
	report, err := RunOnline(context.Background(), cfg, tr, transport.SessionConfig{}, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, 1, report.UnmatchedExpected)
	assert.False(t, report.Passed)
}
