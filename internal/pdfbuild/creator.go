/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pdfbuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	applog "pdfquirk/internal/log"
)

// ErrStarted is returned when Start is called on a Creator more than once.
var ErrStarted = errors.New("build already started")

var buildSeq atomic.Uint64

// Creator runs a single build in the background and reports completion once.
// A Creator is single-use; create a new one per request.
type Creator struct {
	builder Builder

	mu      sync.Mutex
	req     Request
	started bool
	res     Result
	err     error
	done    chan struct{}
}

// NewCreator wraps b.
func NewCreator(b Builder) *Creator {
	return &Creator{builder: b, done: make(chan struct{})}
}

// Start snapshots req and builds it on a new goroutine. onFinished, if set,
// is called exactly once from that goroutine with the success flag.
func (c *Creator) Start(ctx context.Context, req Request, onFinished func(ok bool)) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrStarted
	}
	c.started = true
	c.req = Request{
		Files:  append([]string(nil), req.Files...),
		Output: req.Output,
		Title:  req.Title,
		Author: req.Author,
	}
	snap := c.req
	c.mu.Unlock()

	id := fmt.Sprintf("b-%d", buildSeq.Add(1))
	ctx = applog.ContextWith(ctx, slog.String("build_id", id))
	l := applog.WithComponent("pdfbuild")
	l.InfoContext(ctx, "build started", slog.Int("images", len(snap.Files)), slog.String("output", snap.Output))

	go func() {
		res, err := c.run(ctx, snap)
		c.mu.Lock()
		c.res, c.err = res, err
		c.mu.Unlock()
		close(c.done)
		if err != nil {
			l.ErrorContext(ctx, "build failed", slog.Any("err", err))
		}
		if onFinished != nil {
			onFinished(err == nil)
		}
	}()
	return nil
}

func (c *Creator) run(ctx context.Context, req Request) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("build panicked: %v", r)
		}
	}()
	return c.builder.Build(ctx, req)
}

// OutputFile returns the destination of the started request.
func (c *Creator) OutputFile() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req.Output
}

// Done is closed once the build finished.
func (c *Creator) Done() <-chan struct{} { return c.done }

// Wait blocks until the build finished or ctx is done.
func (c *Creator) Wait(ctx context.Context) (Result, error) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.res, c.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result returns the build result once finished; ok is false while running.
func (c *Creator) Result() (res Result, ok bool) {
	select {
	case <-c.done:
	default:
		return Result{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.res, c.err == nil
}

// Err returns the build error; nil while running or on success.
func (c *Creator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
