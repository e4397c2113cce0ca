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

package status

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/batchxfer/pkg/log"
	"github.com/walteh/batchxfer/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

// 📈 Tracker follows a batch through its event stream and reports it
type Tracker struct {
	console   *log.Logger // optional
	formatter Formatter

	mu        sync.RWMutex
	status    transfer.Status
	units     map[int]transfer.Unit
	finished  int
	done      int64
	total     int64
	lastError error
}

// 🏭 NewTracker creates a tracker; console may be nil
func NewTracker(console *log.Logger) *Tracker {
	return &Tracker{
		console:   console,
		formatter: NewDefaultFormatter(),
		units:     make(map[int]transfer.Unit),
	}
}

// WithFormatter swaps the message formatter
func (t *Tracker) WithFormatter(f Formatter) *Tracker {
	t.formatter = f
	return t
}

// 🔄 Run consumes events until the channel closes or ctx is done
func (t *Tracker) Run(ctx context.Context, events <-chan transfer.Event) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			t.Handle(ctx, ev)
		case <-ctx.Done():
			return errors.Errorf("tracking batch: %w", ctx.Err())
		}
	}
}

// Handle applies one event
func (t *Tracker) Handle(ctx context.Context, ev transfer.Event) {
	logger := zerolog.Ctx(ctx)

	switch ev.Type {
	case transfer.EventStatus:
		t.mu.Lock()
		t.status = ev.Status
		t.mu.Unlock()
		logger.Info().Str("batch", ev.BatchID).Str("status", string(ev.Status)).Msg("batch status changed")

	case transfer.EventProgress:
		t.mu.Lock()
		t.done, t.total = ev.TransferredBytes, ev.TotalBytes
		t.mu.Unlock()
		logger.Debug().
			Int64("transferred", ev.TransferredBytes).
			Int64("total", ev.TotalBytes).
			Msg(t.formatter.FormatProgress(ev.TransferredBytes, ev.TotalBytes))

	case transfer.EventUnit:
		if ev.Unit == nil {
			return
		}
		u := *ev.Unit

		t.mu.Lock()
		prev, seen := t.units[u.Index]
		t.units[u.Index] = u
		newlyTerminal := u.Status.Terminal() && (!seen || !prev.Status.Terminal())
		if newlyTerminal {
			t.finished++
			if u.Err != nil {
				t.lastError = u.Err
			}
		}
		t.mu.Unlock()

		logger.Debug().Int("unit", u.Index).Str("status", string(u.Status)).Msg(t.formatter.FormatUnit(u))
		if newlyTerminal && u.Err != nil {
			logger.Warn().Int("unit", u.Index).Msg(t.formatter.FormatError(u.Err))
		}

		if newlyTerminal && t.console != nil {
			t.console.LogUnit(ctx, toOperation(u))
		}
	}
}

func toOperation(u transfer.Unit) log.UnitOperation {
	op := log.UnitOperation{
		Path:   u.Path(),
		IsDir:  u.Entry.IsDir,
		Status: string(u.Status),
		Bytes:  u.Progress,
		Reason: transfer.Reason(u.Err),
	}
	if u.Renamed() {
		op.DestName = u.DestName
	}
	return op
}

// Status returns the last batch status seen
func (t *Tracker) Status() transfer.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Progress returns the last byte counts seen
func (t *Tracker) Progress() (done, total int64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.done, t.total
}

// Finished counts units that reached a terminal state
func (t *Tracker) Finished() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.finished
}

// LastError returns the most recent unit error
func (t *Tracker) LastError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastError
}

// 🧮 Reconcile replays a final report through Handle. Units whose events were dropped
// by a slow subscriber still get their console line. It returns how many units
// reached a terminal state only through the report.
func (t *Tracker) Reconcile(ctx context.Context, report *transfer.Report) int {
	if report == nil {
		return 0
	}

	caught := 0
	for _, u := range report.Units {
		t.mu.RLock()
		prev, seen := t.units[u.Index]
		t.mu.RUnlock()
		if seen && prev.Status == u.Status {
			continue
		}
		if u.Status.Terminal() && (!seen || !prev.Status.Terminal()) {
			caught++
		}
		t.Handle(ctx, transfer.Event{Type: transfer.EventUnit, BatchID: report.BatchID, Status: report.Status, Unit: &u})
	}

	if done, total := t.Progress(); done != report.TransferredBytes || total != report.TotalBytes {
		t.Handle(ctx, transfer.Event{
			Type:             transfer.EventProgress,
			BatchID:          report.BatchID,
			TransferredBytes: report.TransferredBytes,
			TotalBytes:       report.TotalBytes,
		})
	}
	if t.Status() != report.Status {
		t.Handle(ctx, transfer.Event{Type: transfer.EventStatus, BatchID: report.BatchID, Status: report.Status})
	}
	return caught
}
