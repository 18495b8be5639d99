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

// Command fixreplay is an interactive shell for running FIX replay
// scenarios: loading a scenario file, diffing a captured session against
// an expected one (offline), or driving a live session through a
// transport.FixTransport and diffing the responses as they arrive
// (online). Completed runs are recorded to a local history store.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"fixreplay/history"
	"fixreplay/job"
)

func main() {
	historyPath := flag.String("history-db", "fixreplay_history.db", "path to the run-history SQLite database")
	concurrency := flag.Int("concurrency", 4, "maximum number of replay jobs running at once")
	fixSettings := flag.String("fix-settings", "", "QuickFIX session settings file, required for online runs")
	senderCompID := flag.String("sender-comp-id", "", "SenderCompID for online runs")
	targetCompID := flag.String("target-comp-id", "", "TargetCompID for online runs")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	store, err := history.NewStore(*historyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open history database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	runner := job.NewRunner(*concurrency, logger)

	shell := &Shell{
		log:          logger,
		runner:       runner,
		history:      store,
		fixSettings:  *fixSettings,
		senderCompID: *senderCompID,
		targetCompID: *targetCompID,
		jobs:         make(map[string]*job.Handle),
	}

	Repl(shell)
}
