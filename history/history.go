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

// Package history provides SQLite storage for completed replay runs, one
// row per job, with a prepared statement reused across inserts.
package history

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const createTableQuery = `
CREATE TABLE IF NOT EXISTS run_history (
	job_id             TEXT PRIMARY KEY,
	scenario           TEXT NOT NULL,
	mode               TEXT NOT NULL,
	started_at         TEXT NOT NULL,
	finished_at        TEXT NOT NULL,
	matched            INTEGER NOT NULL,
	unmatched_expected INTEGER NOT NULL,
	unmatched_actual   INTEGER NOT NULL,
	ambiguous          INTEGER NOT NULL,
	failed_messages    INTEGER NOT NULL,
	passed             INTEGER NOT NULL
)`

const insertRunQuery = `
INSERT INTO run_history (
	job_id, scenario, mode, started_at, finished_at,
	matched, unmatched_expected, unmatched_actual, ambiguous, failed_messages, passed
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Run is one completed job's outcome, persisted for later inspection.
type Run struct {
	JobID             string
	Scenario          string
	Mode              string // "offline" or "online"
	StartedAt         time.Time
	FinishedAt        time.Time
	Matched           int
	UnmatchedExpected int
	UnmatchedActual   int
	Ambiguous         int
	FailedMessages    int
	Passed            bool
}

// Store is SQLite-backed run-history persistence, shaped after
// database.MarketDataDb: schema initialized once, a single prepared
// statement reused for every insert.
type Store struct {
	db      *sql.DB
	stmtRun *sql.Stmt
}

// NewStore opens (or creates) a SQLite database at dbPath and prepares
// the insert statement for StoreRun.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	s := &Store{db: db}
	if _, err := db.Exec(createTableQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %v", err)
	}

	if s.stmtRun, err = db.Prepare(insertRunQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare run statement: %v", err)
	}

	log.Printf("history database initialized at %s", dbPath)
	return s, nil
}

// Close releases the prepared statement and the underlying database.
func (s *Store) Close() error {
	if s.stmtRun != nil {
		_ = s.stmtRun.Close()
	}
	return s.db.Close()
}

// StoreRun records one completed job's outcome.
func (s *Store) StoreRun(r Run) error {
	_, err := s.stmtRun.Exec(
		r.JobID, r.Scenario, r.Mode,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.Matched, r.UnmatchedExpected, r.UnmatchedActual, r.Ambiguous, r.FailedMessages, boolToInt(r.Passed),
	)
	return err
}

// RunsForScenario returns every recorded run for a scenario, most recent
// first.
func (s *Store) RunsForScenario(scenario string) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT job_id, scenario, mode, started_at, finished_at,
		       matched, unmatched_expected, unmatched_actual, ambiguous, failed_messages, passed
		FROM run_history WHERE scenario = ? ORDER BY finished_at DESC`, scenario)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		var passed int
		if err := rows.Scan(
			&r.JobID, &r.Scenario, &r.Mode, &started, &finished,
			&r.Matched, &r.UnmatchedExpected, &r.UnmatchedActual, &r.Ambiguous, &r.FailedMessages, &passed,
		); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		r.Passed = passed != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
