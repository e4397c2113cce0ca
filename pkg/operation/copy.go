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

package operation

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/batchxfer/pkg/log"
	"github.com/walteh/batchxfer/pkg/status"
	"github.com/walteh/batchxfer/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

// DefaultEventBuffer is the tracker subscription size when Options.EventBuffer is unset
const DefaultEventBuffer = 256

// 📦 NewCopyOperation creates an operation that copies or moves, following Config.Mode
func NewCopyOperation(opts Options) *CopyOperation {
	return &CopyOperation{
		BaseOperation: NewBaseOperation(opts),
	}
}

// 📦 CopyOperation runs a full batch and keeps its report
type CopyOperation struct {
	BaseOperation

	mu     sync.Mutex
	report *transfer.Report
}

// 🏃 Execute expands and runs the batch. Unit failures are reported, not returned.
func (op *CopyOperation) Execute(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	b, err := op.expandedBatch(ctx)
	if err != nil {
		return err
	}

	if op.Console != nil {
		op.Console.StartBatch(ctx, log.BatchOperation{
			ID:          b.ID(),
			Source:      op.Config.Source.Backend + ":" + op.Config.Source.Root,
			Destination: op.Config.Destination.Backend + ":" + op.Config.Destination.Root,
			Mode:        op.Config.Mode,
			Units:       len(b.Units()),
			TotalBytes:  b.TotalBytes(),
		})
		defer op.Console.EndBatch(ctx)
	}

	buffer := op.EventBuffer
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	events, unsubscribe := b.Subscribe(buffer)
	defer unsubscribe()

	tracker := status.NewTracker(op.Console)
	if op.Formatter != nil {
		tracker.WithFormatter(op.Formatter)
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// the tracker stops when the batch closes its events
		_ = tracker.Run(context.WithoutCancel(ctx), events)
	}()

	if op.OnBatch != nil {
		op.OnBatch(ctx, b)
	}

	report, err := b.Start(ctx)
	wg.Wait()

	// events dropped while the tracker lagged behind are printed from the report
	caught := tracker.Reconcile(ctx, report)
	done, total := tracker.Progress()
	logger.Debug().
		Str("batch", b.ID()).
		Str("status", string(tracker.Status())).
		Int("finished", tracker.Finished()).
		Int("caught_up", caught).
		Int64("transferred", done).
		Int64("total", total).
		AnErr("last_unit_error", tracker.LastError()).
		Msg("tracker settled")

	op.mu.Lock()
	op.report = report
	op.mu.Unlock()

	if err != nil {
		return errors.Errorf("running batch: %w", err)
	}

	logger.Info().
		Str("batch", b.ID()).
		Str("status", string(report.Status)).
		Msg(report.Summary())
	return nil
}

// Report returns the last batch report, nil before Execute finishes
func (op *CopyOperation) Report() *transfer.Report {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.report
}
