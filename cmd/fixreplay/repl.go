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

package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"fixreplay/history"
	"fixreplay/job"
	"fixreplay/scenario"
	"fixreplay/transport"
	"fixreplay/transport/quickfixadapter"
)

// Shell holds everything a REPL command needs: the job runner, the
// history store, and the jobs this session has submitted.
type Shell struct {
	log          *zap.Logger
	runner       *job.Runner
	history      *history.Store
	fixSettings  string
	senderCompID string
	targetCompID string

	mu         sync.Mutex
	jobs       map[string]*job.Handle
	shouldExit bool
}

func (s *Shell) ShouldExit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldExit
}

func (s *Shell) trackJob(h *job.Handle) {
	s.mu.Lock()
	s.jobs[h.Snapshot().JobID] = h
	s.mu.Unlock()
}

func (s *Shell) lookupJob(jobID string) (*job.Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.jobs[jobID]
	return h, ok
}

// Repl drives an interactive shell over Shell, completing over the
// replay verbs (run offline/online, jobs, status, cancel, history) the
// way fixclient.Repl completes over order-entry and market-data verbs.
func Repl(s *Shell) {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("run",
			readline.PcItem("offline"),
			readline.PcItem("online"),
		),
		readline.PcItem("jobs"),
		readline.PcItem("status"),
		readline.PcItem("cancel"),
		readline.PcItem("history"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fixreplay> ",
		HistoryFile:     "/tmp/fixreplay_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Printf("failed to create readline: %v", err)
		return
	}
	defer rl.Close()

	for !s.ShouldExit() {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "run":
			s.handleRunCommand(parts)
		case "jobs":
			s.handleJobsCommand()
		case "status":
			s.handleStatusCommand(parts)
		case "cancel":
			s.handleCancelCommand(parts)
		case "history":
			s.handleHistoryCommand(parts)
		case "help":
			s.displayHelp()
		case "exit":
			return
		default:
			fmt.Println("Unknown command. Type 'help' for available commands.")
		}
	}
}

func (s *Shell) displayHelp() {
	fmt.Print(`Available commands:
  run offline <scenario.json>   Run an offline diff and print the job id
  run online <scenario.json>    Connect, drive, and diff a live session
  jobs                          List every job submitted this session
  status <jobId>                Print a job's current snapshot
  cancel <jobId>                Cancel a running job
  history <scenarioName>        List recorded runs for a scenario
  help                          Show this message
  exit                          Quit
`)
}

func (s *Shell) handleRunCommand(parts []string) {
	if len(parts) < 3 {
		fmt.Println("Usage: run <offline|online> <scenario.json>")
		return
	}
	mode := strings.ToLower(parts[1])
	path := parts[2]

	cfg, err := scenario.LoadConfig(path)
	if err != nil {
		fmt.Printf("failed to load scenario: %v\n", err)
		return
	}

	started := time.Now().UTC()

	var h *job.Handle
	switch mode {
	case "offline":
		h = s.runner.Submit(context.Background(), func(ctx context.Context) (any, error) {
			return scenario.RunOffline(cfg, s.log)
		})
	case "online":
		if s.fixSettings == "" {
			fmt.Println("run online requires -fix-settings at startup")
			return
		}
		h = s.runner.Submit(context.Background(), func(ctx context.Context) (any, error) {
			adapter := quickfixadapter.New(s.fixSettings, s.log)
			sessionCfg := transport.SessionConfig{
				Entry: transport.SessionKey{SenderCompID: s.senderCompID, TargetCompID: s.targetCompID},
			}
			return scenario.RunOnline(ctx, cfg, adapter, sessionCfg, s.log)
		})
	default:
		fmt.Println("Usage: run <offline|online> <scenario.json>")
		return
	}

	s.trackJob(h)
	jobID := h.Snapshot().JobID
	fmt.Printf("submitted job %s\n", jobID)

	go s.recordWhenDone(jobID, cfg.Name, mode, started, h)
}

// recordWhenDone persists the job's outcome to history once it finishes,
// independent of whether the shell is still open to observe it.
func (s *Shell) recordWhenDone(jobID, scenarioName, mode string, started time.Time, h *job.Handle) {
	<-h.Done()
	snap := h.Snapshot()

	run := history.Run{
		JobID:      jobID,
		Scenario:   scenarioName,
		Mode:       mode,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}

	if report, ok := snap.Result.(*scenario.DiffReport); ok && report != nil {
		run.Matched = report.MatchedComparisons
		run.UnmatchedExpected = report.UnmatchedExpected
		run.UnmatchedActual = report.UnmatchedActual
		run.Ambiguous = report.Ambiguous
		run.FailedMessages = report.FailedMessages
		run.Passed = report.Passed
	}

	if err := s.history.StoreRun(run); err != nil {
		s.log.Warn("failed to record run history", zap.String("jobId", jobID), zap.Error(err))
	}
}

func (s *Shell) handleJobsCommand() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) == 0 {
		fmt.Println("no jobs submitted this session")
		return
	}
	for id, h := range s.jobs {
		snap := h.Snapshot()
		fmt.Printf("%s  %s\n", id, snap.Status)
	}
}

func (s *Shell) handleStatusCommand(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: status <jobId>")
		return
	}
	h, ok := s.lookupJob(parts[1])
	if !ok {
		fmt.Println("unknown job id")
		return
	}
	snap := h.Snapshot()
	fmt.Printf("job %s: %s\n", snap.JobID, snap.Status)
	if snap.Error != "" {
		fmt.Printf("  error: %s\n", snap.Error)
	}
	if report, ok := snap.Result.(*scenario.DiffReport); ok && report != nil {
		fmt.Printf("  matched=%d unmatchedExpected=%d unmatchedActual=%d ambiguous=%d passed=%v\n",
			report.MatchedComparisons, report.UnmatchedExpected, report.UnmatchedActual, report.Ambiguous, report.Passed)
	}
}

func (s *Shell) handleCancelCommand(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: cancel <jobId>")
		return
	}
	h, ok := s.lookupJob(parts[1])
	if !ok {
		fmt.Println("unknown job id")
		return
	}
	h.Cancel()
	fmt.Println("cancel requested")
}

func (s *Shell) handleHistoryCommand(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: history <scenarioName>")
		return
	}
	runs, err := s.history.RunsForScenario(parts[1])
	if err != nil {
		fmt.Printf("failed to read history: %v\n", err)
		return
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs for this scenario")
		return
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  %s  passed=%v  matched=%d unmatchedExpected=%d unmatchedActual=%d ambiguous=%d failed=%d\n",
			r.FinishedAt.Format(time.RFC3339), r.JobID, r.Mode, r.Passed,
			r.Matched, r.UnmatchedExpected, r.UnmatchedActual, r.Ambiguous, r.FailedMessages)
	}
}
