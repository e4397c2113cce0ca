// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transfer

import (
	"container/heap"
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/batchxfer/pkg/backend"
	"gitlab.com/tozd/go/errors"
)

// completion is what a transfer goroutine sends back to the scheduler
type completion struct {
	index int
	name  string
	err   error
}

// job is the immutable input of one transfer goroutine
type job struct {
	u       *unit
	entry   backend.Entry
	destDir string
}

// 🏃 Start runs the batch until every unit is terminal or the batch is cancelled.
// Unit failures are recorded in the report and do not make Start fail; a
// cancelled batch returns its partial report together with a *CancellationError.
func (b *Batch) Start(ctx context.Context) (*Report, error) {
	logger := zerolog.Ctx(ctx).With().Str("batch", b.id).Logger()
	ctx = logger.WithContext(ctx)

	b.mu.Lock()
	if b.status != StatusQueued {
		s := b.status
		b.mu.Unlock()
		return nil, errors.Errorf("batch %s cannot start from status %s", b.id, s)
	}
	b.status = StatusStarted
	b.queue = readyQueue{}
	for _, u := range b.units {
		if u.parent >= 0 {
			parent := b.units[u.parent]
			parent.children = append(parent.children, u.index)
		}
		if u.ready {
			heap.Push(&b.queue, u.index)
		}
	}
	units := len(b.units)
	b.mu.Unlock()
	b.publishStatus(StatusStarted)

	logger.Info().
		Int("units", units).
		Int("concurrency", b.opts.Concurrency).
		Str("mode", string(b.opts.Mode)).
		Msg("batch started")

	cancelled := b.run(ctx)
	return b.finish(ctx, cancelled)
}

// run is the scheduler loop. It is the only place slots and the completed count change.
func (b *Batch) run(ctx context.Context) (cancelled bool) {
	logger := zerolog.Ctx(ctx)

	done := make(chan completion)
	slots := b.opts.Concurrency
	inflight := 0
	cancelCh := b.cancelCh
	ctxDone := ctx.Done()

	fill := func() {
		if cancelled || b.cancelRequested() || ctx.Err() != nil {
			cancelled = true
			return
		}
		n := min(b.opts.Concurrency, slots)
		for i := 0; i < n; i++ {
			if !b.dispatchNext(ctx, done) {
				return
			}
			slots--
			inflight++
		}
	}

	fill()
	for inflight > 0 {
		select {
		case c := <-done:
			inflight--
			slots++
			b.complete(ctx, c)
			fill()
		case <-cancelCh:
			cancelCh = nil
			cancelled = true
			logger.Info().Int("in_flight", inflight).Msg("cancel requested, waiting for in-flight units")
		case <-ctxDone:
			ctxDone = nil
			cancelled = true
			logger.Info().Int("in_flight", inflight).Err(ctx.Err()).Msg("context done, waiting for in-flight units")
		}
	}

	return cancelled || b.cancelRequested() || ctx.Err() != nil
}

// dispatchNext starts the first queued, ready unit in list order
func (b *Batch) dispatchNext(ctx context.Context, done chan<- completion) bool {
	b.mu.Lock()
	var next *unit
	for b.queue.Len() > 0 {
		u := b.units[heap.Pop(&b.queue).(int)]
		if u.status == UnitQueued && u.ready {
			next = u
			break
		}
	}
	if next == nil {
		b.mu.Unlock()
		return false
	}
	next.status = UnitStarted
	j := job{u: next, entry: next.entry, destDir: next.destDir}
	path := next.snapshot().Path()
	b.publishUnit(next)
	b.mu.Unlock()

	zerolog.Ctx(ctx).Debug().
		Int("unit", j.u.index).
		Str("path", path).
		Str("dest_dir", j.destDir).
		Msg("dispatching unit")

	go func() {
		name, err := b.transfer(ctx, j)
		done <- completion{index: j.u.index, name: name, err: err}
	}()
	return true
}

// complete records a finished unit and unblocks the units that depended on it
func (b *Batch) complete(ctx context.Context, c completion) {
	logger := zerolog.Ctx(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.units[c.index]
	b.completed++

	if c.err != nil {
		u.status = UnitError
		u.err = c.err
		b.publishUnit(u)
		logger.Warn().Err(c.err).Int("unit", u.index).Str("path", u.snapshot().Path()).Msg("unit failed")
		if u.entry.IsDir {
			b.skipSubtree(u)
		}
		return
	}

	u.status = UnitDone
	u.destName = c.name
	b.publishUnit(u)

	if !u.entry.IsDir {
		return
	}

	dir := b.opts.Destination.Join(u.destDir, c.name)
	for _, ci := range u.children {
		child := b.units[ci]
		child.destDir = dir
		child.ready = true
		heap.Push(&b.queue, ci)
		b.publishUnit(child)
	}
}

// skipSubtree terminates every descendant of a failed directory. Must hold b.mu.
func (b *Batch) skipSubtree(u *unit) {
	for _, ci := range u.children {
		child := b.units[ci]
		if child.status != UnitQueued {
			continue
		}
		child.status = UnitSkipped
		child.err = errors.Errorf("%s: %w", u.snapshot().Path(), ErrParentFailed)
		b.completed++
		b.publishUnit(child)
		b.skipSubtree(child)
	}
}

// 📄 transfer moves one unit. It runs on its own goroutine and touches no scheduler state.
func (b *Batch) transfer(ctx context.Context, j job) (string, error) {
	src, dst := b.opts.Source, b.opts.Destination

	name, err := ResolveName(ctx, dst, j.destDir, j.entry, b.opts.Resolve)
	if err != nil {
		return "", err
	}
	if j.entry.IsDir {
		return name, nil
	}

	srcPath := j.entry.Path(src)
	dstPath := dst.Join(j.destDir, name)

	r, err := src.GetStream(ctx, srcPath)
	if err != nil {
		return name, &TransferIOError{Source: srcPath, Destination: dstPath, Err: err}
	}
	defer r.Close()

	// PutStream refuses an existing path before reading r, so a name taken by
	// another writer since resolution is retried under the next free name
	for attempt := 1; ; attempt++ {
		err = dst.PutStream(ctx, r, dstPath, b.onChunk(j.u))
		if err == nil {
			break
		}
		if !errors.Is(err, backend.ErrAlreadyExists) || attempt >= b.opts.Resolve.MaxAttempts {
			return name, &TransferIOError{Source: srcPath, Destination: dstPath, Err: err}
		}

		zerolog.Ctx(ctx).Debug().Str("path", dstPath).Msg("destination appeared after resolution, renaming")
		if name, err = ResolveName(ctx, dst, j.destDir, j.entry, b.opts.Resolve); err != nil {
			return "", err
		}
		dstPath = dst.Join(j.destDir, name)
	}

	if b.opts.Mode == ModeMove {
		if err := src.(backend.Remover).Delete(ctx, srcPath); err != nil {
			return name, errors.Errorf("removing moved source %s: %w", srcPath, err)
		}
	}
	return name, nil
}

// finish settles the batch status and builds the report
func (b *Batch) finish(ctx context.Context, cancelled bool) (*Report, error) {
	logger := zerolog.Ctx(ctx)

	b.mu.RLock()
	pending := len(b.units) - b.completed
	failed := false
	for _, u := range b.units {
		if u.status == UnitError || u.status == UnitSkipped {
			failed = true
			break
		}
	}
	b.mu.RUnlock()

	// a cancel that arrived after the last unit finished changes nothing
	if pending == 0 {
		cancelled = false
	}

	if !cancelled && b.opts.Mode == ModeMove {
		b.removeMovedDirs(ctx)
	}

	status := StatusDone
	switch {
	case cancelled:
		status = StatusError
	case failed:
		status = StatusPartial
	}

	b.publishProgress(true)
	b.setStatus(status)

	report := b.Report()
	b.events.close()

	logger.Info().
		Str("status", string(status)).
		Int64("transferred_bytes", report.TransferredBytes).
		Int64("total_bytes", report.TotalBytes).
		Msg("batch finished")

	if cancelled {
		var cause error
		if ctx.Err() != nil {
			cause = ctx.Err()
		}
		err := &CancellationError{Completed: len(report.Units) - pending, Total: len(report.Units), Cause: cause}
		report.Err = err
		return report, err
	}
	return report, nil
}

// removeMovedDirs deletes source directories whose whole subtree was moved, deepest first
func (b *Batch) removeMovedDirs(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	remover := b.opts.Source.(backend.Remover)

	b.mu.RLock()
	var dirs []string
	for i := len(b.units) - 1; i >= 0; i-- {
		u := b.units[i]
		if u.entry.IsDir && b.subtreeDone(u) {
			dirs = append(dirs, u.entry.Path(b.opts.Source))
		}
	}
	b.mu.RUnlock()

	for _, dir := range dirs {
		if err := remover.Delete(ctx, dir); err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("could not remove moved source directory")
		}
	}
}

func (b *Batch) subtreeDone(u *unit) bool {
	if u.status != UnitDone {
		return false
	}
	for _, ci := range u.children {
		if !b.subtreeDone(b.units[ci]) {
			return false
		}
	}
	return true
}

// readyQueue is a min-heap of unit indices; the smallest index is the first ready unit in list order
type readyQueue []int

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) {
	*q = append(*q, x.(int))
}

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
