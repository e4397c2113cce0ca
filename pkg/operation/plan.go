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
	"github.com/walteh/batchxfer/pkg/transfer"
)

// 🗺️ Plan is the expanded unit list of a batch that was never started
type Plan struct {
	BatchID    string
	Units      []transfer.Unit
	TotalBytes int64
}

// Files counts file units
func (p *Plan) Files() int {
	n := 0
	for _, u := range p.Units {
		if !u.Entry.IsDir {
			n++
		}
	}
	return n
}

// NewPlanOperation creates a dry-run operation
func NewPlanOperation(opts Options) *PlanOperation {
	return &PlanOperation{
		BaseOperation: NewBaseOperation(opts),
	}
}

// 🔍 PlanOperation expands a batch without transferring anything
type PlanOperation struct {
	BaseOperation

	mu   sync.Mutex
	plan *Plan
}

func (op *PlanOperation) Execute(ctx context.Context) error {
	b, err := op.expandedBatch(ctx)
	if err != nil {
		return err
	}

	plan := &Plan{
		BatchID:    b.ID(),
		Units:      b.Units(),
		TotalBytes: b.TotalBytes(),
	}

	zerolog.Ctx(ctx).Debug().
		Str("batch", plan.BatchID).
		Int("units", len(plan.Units)).
		Int64("total_bytes", plan.TotalBytes).
		Msg("planned batch")

	op.mu.Lock()
	op.plan = plan
	op.mu.Unlock()
	return nil
}

// Plan returns the expanded plan, nil before Execute finishes
func (op *PlanOperation) Plan() *Plan {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.plan
}
