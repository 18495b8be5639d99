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

package job

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Work is a scenario run, or anything else schedulable as a job: it must
// observe ctx cancellation at its suspension points (spec.md §5) and
// return either a JSON-serializable result or an error.
type Work func(ctx context.Context) (any, error)

// Runner services submitted jobs with a bounded pool of worker goroutines,
// grounded on the errgroup.WithContext + SetLimit worker-pool shape used
// for bounded parallel work across the example pack (e.g.
// vovakirdan-surge/internal/driver/parallel.go's DiagnoseDirWithOptions).
// Unlike that one-shot fan-out, jobs here are submitted incrementally over
// the Runner's lifetime, so the group is rebuilt per submission rather
// than shared across a single batch.
type Runner struct {
	limit int
	log   *zap.Logger
	sem   chan struct{}
}

// NewRunner builds a Runner allowing at most limit jobs to execute
// concurrently; additional submissions queue until a slot frees.
func NewRunner(limit int, log *zap.Logger) *Runner {
	if limit <= 0 {
		limit = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{limit: limit, log: log, sem: make(chan struct{}, limit)}
}

// Submit starts work in its own goroutine, subject to the Runner's
// concurrency limit, and returns immediately with a RUNNING Handle.
func (r *Runner) Submit(parent context.Context, work Work) *Handle {
	ctx, cancel := context.WithCancel(parent)
	h := newHandle(cancel)

	go func() {
		r.sem <- struct{}{}
		defer func() { <-r.sem }()

		g, gctx := errgroup.WithContext(ctx)
		var result any
		g.Go(func() error {
			res, err := work(gctx)
			result = res
			return err
		})

		err := g.Wait()
		switch {
		case err != nil && ctx.Err() == context.Canceled:
			h.finishFailed("cancelled")
		case err != nil:
			r.log.Warn("job failed", zap.Error(err))
			h.finishFailed(err.Error())
		default:
			h.finishSucceeded(result)
		}
	}()

	return h
}
