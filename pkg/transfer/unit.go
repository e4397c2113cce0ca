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
	"sync/atomic"

	"github.com/walteh/batchxfer/pkg/backend"
)

// 📊 UnitStatus is the state of a single transfer unit
type UnitStatus string

const (
	UnitQueued  UnitStatus = "queued"
	UnitStarted UnitStatus = "started"
	UnitDone    UnitStatus = "done"
	UnitError   UnitStatus = "error"
	UnitSkipped UnitStatus = "skipped" // an ancestor directory failed
)

// Terminal reports whether the unit will not change state again
func (s UnitStatus) Terminal() bool {
	return s == UnitDone || s == UnitError || s == UnitSkipped
}

// 📦 unit is the owner-side record of one file or directory in a batch.
// Every field except progress is guarded by Batch.mu.
type unit struct {
	index    int
	parent   int   // index of the enclosing directory unit, -1 at the top level
	children []int // filled when the batch starts
	entry    backend.Entry
	subPath  string // relative to the batch root, using source names
	status   UnitStatus
	ready    bool
	destDir  string // set once ready
	destName string // resolved name, set on success
	err      error
	progress atomic.Int64
}

// 🔍 Unit is a point-in-time copy of a transfer unit
type Unit struct {
	Index    int
	Entry    backend.Entry
	SubPath  string
	Status   UnitStatus
	Ready    bool
	Progress int64
	DestDir  string
	DestName string
	Err      error
}

// Path returns the unit's source path relative to the batch root
func (u Unit) Path() string {
	if u.SubPath == "" {
		return u.Entry.Name
	}
	return u.SubPath + "/" + u.Entry.Name
}

// Renamed reports whether the unit landed under a different name than its source
func (u Unit) Renamed() bool {
	return u.DestName != "" && u.DestName != u.Entry.Name
}

func (u *unit) snapshot() Unit {
	return Unit{
		Index:    u.index,
		Entry:    u.entry,
		SubPath:  u.subPath,
		Status:   u.status,
		Ready:    u.ready,
		Progress: u.progress.Load(),
		DestDir:  u.destDir,
		DestName: u.destName,
		Err:      u.err,
	}
}
