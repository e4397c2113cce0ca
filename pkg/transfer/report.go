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
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/walteh/batchxfer/pkg/backend"
	"gitlab.com/tozd/go/errors"
)

// 📋 Report is the outcome of a batch: every unit, byte totals and the batch-level error if any
type Report struct {
	BatchID          string
	Status           Status
	Mode             Mode
	TotalBytes       int64
	TransferredBytes int64
	Units            []Unit
	Err              error
}

// Counts tallies report units by kind and outcome
type Counts struct {
	Files       int
	Directories int
	Done        int
	Failed      int
	Skipped     int
	Pending     int

	FilesDone   int
	FilesFailed int // error or skipped
	DirsFailed  int
}

// Report builds a report from the current batch state
func (b *Batch) Report() *Report {
	b.mu.RLock()
	defer b.mu.RUnlock()

	units := make([]Unit, len(b.units))
	for i, u := range b.units {
		units[i] = u.snapshot()
	}

	return &Report{
		BatchID:          b.id,
		Status:           b.status,
		Mode:             b.opts.Mode,
		TotalBytes:       b.totalBytes,
		TransferredBytes: b.transferred.Load(),
		Units:            units,
	}
}

// Counts tallies the units
func (r *Report) Counts() Counts {
	var c Counts
	for _, u := range r.Units {
		if u.Entry.IsDir {
			c.Directories++
		} else {
			c.Files++
		}

		switch u.Status {
		case UnitDone:
			c.Done++
			if !u.Entry.IsDir {
				c.FilesDone++
			}
		case UnitError:
			c.Failed++
		case UnitSkipped:
			c.Skipped++
		default:
			c.Pending++
		}

		if u.Status == UnitError || u.Status == UnitSkipped {
			if u.Entry.IsDir {
				c.DirsFailed++
			} else {
				c.FilesFailed++
			}
		}
	}
	return c
}

// Failures returns the units that ended in error or were skipped
func (r *Report) Failures() []Unit {
	var out []Unit
	for _, u := range r.Units {
		if u.Status == UnitError || u.Status == UnitSkipped {
			out = append(out, u)
		}
	}
	return out
}

// 📝 Summary renders a one-line outcome, e.g. "18 of 20 files copied (1.2 MB), 2 failed: permission denied"
func (r *Report) Summary() string {
	c := r.Counts()

	verb := "copied"
	if r.Mode == ModeMove {
		verb = "moved"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d of %d files %s (%s)", c.FilesDone, c.Files, verb, humanize.Bytes(uint64(max(r.TransferredBytes, 0))))

	if c.FilesFailed > 0 {
		fmt.Fprintf(&sb, ", %d failed", c.FilesFailed)
	}
	if c.DirsFailed > 0 {
		fmt.Fprintf(&sb, ", %d directories failed", c.DirsFailed)
	}
	if reasons := r.reasons(); len(reasons) > 0 {
		fmt.Fprintf(&sb, ": %s", strings.Join(reasons, ", "))
	}
	if c.Pending > 0 {
		fmt.Fprintf(&sb, "; %d not started", c.Pending)
	}
	if errors.Is(r.Err, ErrCancelled) {
		sb.WriteString(" (cancelled)")
	}
	return sb.String()
}

// reasons lists distinct failure causes in first-seen order
func (r *Report) reasons() []string {
	seen := map[string]bool{}
	var out []string
	for _, u := range r.Failures() {
		reason := Reason(u.Err)
		if reason == "" || seen[reason] {
			continue
		}
		seen[reason] = true
		out = append(out, reason)
	}
	return out
}

// Reason reduces a unit error to a short human cause
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, known := range []error{
		backend.ErrPermission,
		backend.ErrNotFound,
		backend.ErrAlreadyExists,
		ErrTooManyConflicts,
		ErrParentFailed,
		ErrCancelled,
		backend.ErrIO,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}
