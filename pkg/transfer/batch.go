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
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/walteh/batchxfer/pkg/backend"
	"gitlab.com/tozd/go/errors"
)

// 📊 Status is the state of a whole batch
type Status string

const (
	StatusCalculating Status = "calculating"
	StatusQueued      Status = "queued"
	StatusStarted     Status = "started"
	StatusDone        Status = "done"
	StatusPartial     Status = "partial" // every unit terminal, some failed or skipped
	StatusError       Status = "error"
)

// Terminal reports whether the batch has finished
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusPartial || s == StatusError
}

// Mode selects between copying and moving
type Mode string

const (
	ModeCopy Mode = "copy"
	ModeMove Mode = "move"
)

const (
	// DefaultConcurrency is the number of units in flight at once
	DefaultConcurrency = 2
	// DefaultProgressInterval throttles progress events
	DefaultProgressInterval = 100 * time.Millisecond
)

// 🔧 Options configures a batch
type Options struct {
	Source          backend.Backend
	Destination     backend.Backend
	SourceRoot      string
	DestinationRoot string

	// Concurrency caps in-flight units; defaults to DefaultConcurrency
	Concurrency int
	// Mode defaults to ModeCopy
	Mode Mode
	// Exclude holds doublestar patterns matched against relative paths and names
	Exclude []string
	// Resolve controls destination renaming
	Resolve ResolveOptions
	// ProgressInterval throttles progress events; negative disables throttling
	ProgressInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Mode == "" {
		o.Mode = ModeCopy
	}
	if o.ProgressInterval == 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	o.Resolve = o.Resolve.withDefaults()
	return o
}

// Validate checks that the options can drive a batch
func (o Options) Validate() error {
	if o.Source == nil {
		return errors.Errorf("source backend is required")
	}
	if o.Destination == nil {
		return errors.Errorf("destination backend is required")
	}
	switch o.Mode {
	case "", ModeCopy:
	case ModeMove:
		if _, ok := o.Source.(backend.Remover); !ok {
			return errors.Errorf("move mode needs a source backend that can delete, %s cannot", o.Source.Name())
		}
	default:
		return errors.Errorf("unknown mode %q", o.Mode)
	}
	for _, pattern := range o.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return nil
}

// 📦 Batch is one copy or move operation over many files and directories.
// Build it with New, fill it with Expand, run it with Start.
type Batch struct {
	id   string
	opts Options

	mu         sync.RWMutex
	status     Status
	units      []*unit
	totalBytes int64
	completed  int
	queue      readyQueue

	transferred atomic.Int64

	cancelOnce sync.Once
	cancelCh   chan struct{}

	events   *notifier
	progress throttle
}

// 🏭 New creates a batch in the calculating state
func New(opts Options) (*Batch, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Errorf("validating options: %w", err)
	}
	opts = opts.withDefaults()
	opts.Resolve.claims = newClaimSet()

	return &Batch{
		id:       uuid.NewString(),
		opts:     opts,
		status:   StatusCalculating,
		cancelCh: make(chan struct{}),
		events:   newNotifier(),
		progress: throttle{interval: opts.ProgressInterval},
	}, nil
}

// ID returns the batch identifier
func (b *Batch) ID() string {
	return b.id
}

// Status returns the current batch status
func (b *Batch) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// TotalBytes is the sum of all file sizes, known once the batch is expanded
func (b *Batch) TotalBytes() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.totalBytes
}

// TransferredBytes is the number of file bytes written so far
func (b *Batch) TransferredBytes() int64 {
	return b.transferred.Load()
}

// 📈 Progress returns the completed fraction in [0,1]
func (b *Batch) Progress() float64 {
	return fraction(b.transferred.Load(), b.TotalBytes())
}

// Units returns a snapshot of every unit in list order
func (b *Batch) Units() []Unit {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Unit, len(b.units))
	for i, u := range b.units {
		out[i] = u.snapshot()
	}
	return out
}

// Subscribe returns a channel of batch events and a func that stops delivery.
// The channel is closed when the batch reaches a terminal status.
func (b *Batch) Subscribe(buffer int) (<-chan Event, func()) {
	return b.events.subscribe(buffer)
}

// 🛑 Cancel stops dispatching new units. In-flight units run to completion.
func (b *Batch) Cancel() {
	b.cancelOnce.Do(func() {
		close(b.cancelCh)
	})
}

func (b *Batch) cancelRequested() bool {
	select {
	case <-b.cancelCh:
		return true
	default:
		return false
	}
}

func (b *Batch) setStatus(s Status) {
	b.mu.Lock()
	b.status = s
	b.mu.Unlock()
	b.publishStatus(s)
}

func (b *Batch) publishStatus(s Status) {
	b.events.publish(func() Event {
		return Event{Type: EventStatus, BatchID: b.id, Status: s}
	})
}

// publishUnit must be called with b.mu held
func (b *Batch) publishUnit(u *unit) {
	b.events.publish(func() Event {
		snap := u.snapshot()
		return Event{Type: EventUnit, BatchID: b.id, Status: b.status, Unit: &snap}
	})
}

func (b *Batch) publishProgress(force bool) {
	if !force && !b.progress.allow() {
		return
	}
	total := b.TotalBytes()
	b.events.publish(func() Event {
		done := b.transferred.Load()
		return Event{
			Type:             EventProgress,
			BatchID:          b.id,
			Progress:         fraction(done, total),
			TransferredBytes: done,
			TotalBytes:       total,
		}
	})
}

// onChunk accounts for bytes written by a file transfer
func (b *Batch) onChunk(u *unit) backend.ChunkFunc {
	return func(n int64) {
		if n <= 0 {
			return
		}
		u.progress.Add(n)
		b.transferred.Add(n)
		b.publishProgress(false)
	}
}

func fraction(done, total int64) float64 {
	if total <= 0 {
		return 1
	}
	f := float64(done) / float64(total)
	if f > 1 {
		return 1
	}
	return f
}
