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
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/batchxfer/pkg/backend"
	"github.com/walteh/batchxfer/pkg/backend/billyfs"
	"github.com/walteh/batchxfer/pkg/log"
	"github.com/walteh/batchxfer/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

func TestTrackerHandle(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	buf := &bytes.Buffer{}
	tracker := NewTracker(log.New(buf, zerolog.Nop()))

	file := func(status transfer.UnitStatus, err error) *transfer.Unit {
		return &transfer.Unit{Index: 0, Entry: backend.Entry{Name: "a.txt"}, Status: status, Err: err}
	}

	tracker.Handle(ctx, transfer.Event{Type: transfer.EventStatus, Status: transfer.StatusStarted})
	tracker.Handle(ctx, transfer.Event{Type: transfer.EventUnit, Unit: file(transfer.UnitStarted, nil)})
	tracker.Handle(ctx, transfer.Event{Type: transfer.EventProgress, TransferredBytes: 5, TotalBytes: 10})
	tracker.Handle(ctx, transfer.Event{Type: transfer.EventUnit, Unit: file(transfer.UnitError, errors.Errorf("x: %w", backend.ErrIO))})
	// a repeated terminal event is not counted twice
	tracker.Handle(ctx, transfer.Event{Type: transfer.EventUnit, Unit: file(transfer.UnitError, errors.Errorf("x: %w", backend.ErrIO))})
	tracker.Handle(ctx, transfer.Event{Type: transfer.EventUnit})

	assert.Equal(t, transfer.StatusStarted, tracker.Status())
	done, total := tracker.Progress()
	assert.Equal(t, int64(5), done)
	assert.Equal(t, int64(10), total)
	assert.Equal(t, 1, tracker.Finished())
	assert.ErrorIs(t, tracker.LastError(), backend.ErrIO)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "one console line per finished unit")
	assert.Contains(t, lines[0], "a.txt")
	assert.Contains(t, lines[0], "i/o error")
}

func TestTrackerFollowsBatch(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	src := billyfs.NewMemory()
	require.NoError(t, util.WriteFile(src.Filesystem(), "/src/a.txt", []byte("hello"), 0o644))
	require.NoError(t, util.WriteFile(src.Filesystem(), "/src/dir/b.txt", []byte("world!"), 0o644))
	dst := billyfs.NewMemory()
	require.NoError(t, util.WriteFile(dst.Filesystem(), "/dst/a.txt", []byte("old"), 0o644))

	batch, err := transfer.New(transfer.Options{
		Source:           src,
		Destination:      dst,
		SourceRoot:       "/src",
		DestinationRoot:  "/dst",
		ProgressInterval: -1,
	})
	require.NoError(t, err)

	entries, err := src.List(ctx, "/src")
	require.NoError(t, err)
	require.NoError(t, batch.Expand(ctx, entries))

	events, unsubscribe := batch.Subscribe(1024)
	defer unsubscribe()

	buf := &bytes.Buffer{}
	tracker := NewTracker(log.New(buf, zerolog.Nop()))

	runErr := make(chan error, 1)
	go func() { runErr <- tracker.Run(ctx, events) }()

	report, err := batch.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, <-runErr, "tracker should stop when the batch closes its events")

	assert.Equal(t, transfer.StatusDone, tracker.Status())
	assert.Equal(t, 3, tracker.Finished())
	done, total := tracker.Progress()
	assert.Equal(t, report.TotalBytes, done)
	assert.Equal(t, int64(11), total)

	assert.Contains(t, buf.String(), "→ a.txt_1", "renamed unit should be logged")
	assert.Zero(t, tracker.Reconcile(ctx, report), "nothing was dropped")
}

func TestTrackerReconcile(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	buf := &bytes.Buffer{}
	tracker := NewTracker(log.New(buf, zerolog.Nop()))

	unit := func(i int, name string, status transfer.UnitStatus, err error) transfer.Unit {
		return transfer.Unit{Index: i, Entry: backend.Entry{Name: name, Size: 4}, Status: status, Err: err}
	}

	// only the first unit's events made it through
	first := unit(0, "seen.txt", transfer.UnitDone, nil)
	tracker.Handle(ctx, transfer.Event{Type: transfer.EventUnit, Unit: &first})

	report := &transfer.Report{
		BatchID:          "b1",
		Status:           transfer.StatusPartial,
		TotalBytes:       12,
		TransferredBytes: 8,
		Units: []transfer.Unit{
			first,
			unit(1, "dropped.txt", transfer.UnitDone, nil),
			unit(2, "broken.txt", transfer.UnitError, errors.Errorf("x: %w", backend.ErrPermission)),
		},
	}

	assert.Equal(t, 2, tracker.Reconcile(ctx, report))
	assert.Equal(t, 3, tracker.Finished())
	assert.Equal(t, transfer.StatusPartial, tracker.Status())
	assert.ErrorIs(t, tracker.LastError(), backend.ErrPermission)
	done, total := tracker.Progress()
	assert.Equal(t, int64(8), done)
	assert.Equal(t, int64(12), total)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3, "every finished unit gets exactly one line")
	assert.Contains(t, lines[1], "dropped.txt")
	assert.Contains(t, lines[2], "permission denied")

	assert.Zero(t, tracker.Reconcile(ctx, report), "a second pass changes nothing")
	assert.Zero(t, tracker.Reconcile(ctx, nil))
}

func TestTrackerRunStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewTracker(nil).Run(ctx, make(chan transfer.Event))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
