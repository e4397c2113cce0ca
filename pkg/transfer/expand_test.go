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

package transfer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/batchxfer/pkg/backend"
	"github.com/walteh/batchxfer/pkg/backend/billyfs"
	"github.com/walteh/batchxfer/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

func TestExpand(t *testing.T) {
	tree := map[string]string{
		"/src/a.txt":         "aa",
		"/src/z.txt":         "zzz",
		"/src/d1/b.txt":      "b",
		"/src/d1/e.txt":      "eeee",
		"/src/d1/d2/c.txt":   "ccccc",
		"/src/empty/":        "",
		"/src/d1/skip.tmp":   "tmp",
		"/src/d1/d2/x/y.tmp": "tmp",
	}

	tests := []struct {
		name      string
		exclude   []string
		wantPaths []string
		wantBytes int64
	}{
		{
			name: "depth_first_dirs_before_contents",
			wantPaths: []string{
				"a.txt", "z.txt",
				"d1", "d1/b.txt", "d1/e.txt", "d1/skip.tmp",
				"d1/d2", "d1/d2/c.txt",
				"d1/d2/x", "d1/d2/x/y.tmp",
				"empty",
			},
			wantBytes: 2 + 3 + 1 + 4 + 3 + 5 + 3,
		},
		{
			name:    "exclude_patterns_drop_matches",
			exclude: []string{"**/*.tmp", "empty"},
			wantPaths: []string{
				"a.txt", "z.txt",
				"d1", "d1/b.txt", "d1/e.txt",
				"d1/d2", "d1/d2/c.txt",
				"d1/d2/x",
			},
			wantBytes: 2 + 3 + 1 + 4 + 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			src := memTree(t, tree)

			b := newExpanded(t, ctx, transfer.Options{
				Source:      src,
				Destination: billyfs.NewMemory(),
				Exclude:     tt.exclude,
			})

			units := b.Units()
			assert.Equal(t, tt.wantPaths, unitPaths(units), "units should be listed depth first")
			assert.Equal(t, tt.wantBytes, b.TotalBytes(), "total bytes should sum file sizes")
			assert.Equal(t, transfer.StatusQueued, b.Status(), "expanded batch should be queued")

			for i, u := range units {
				assert.Equal(t, i, u.Index, "index should match list position")
				assert.Equal(t, transfer.UnitQueued, u.Status, "%s should start queued", u.Path())
				assert.Equal(t, u.SubPath == "", u.Ready, "only top-level units start ready: %s", u.Path())
				if u.Ready {
					assert.Equal(t, "/dst", u.DestDir, "top-level units land in the destination root")
				}
			}
		})
	}
}

func TestExpandFailsWholeBatch(t *testing.T) {
	ctx := testContext(t)

	src := &mockBackend{}
	src.On("List", mock.Anything, "/src/good").Return([]backend.Entry{
		{Name: "inner.txt", Dir: "/src/good", Size: 3},
	}, nil).Once()
	src.On("List", mock.Anything, "/src/bad").Return(nil, errors.Errorf("list /src/bad: %w", backend.ErrPermission)).Once()

	b, err := transfer.New(transfer.Options{
		Source:          src,
		Destination:     billyfs.NewMemory(),
		DestinationRoot: "/dst",
	})
	require.NoError(t, err)

	events, unsubscribe := b.Subscribe(16)
	defer unsubscribe()

	err = b.Expand(ctx, []backend.Entry{
		{Name: "top.txt", Dir: "/src", Size: 1},
		{Name: "good", Dir: "/src", IsDir: true},
		{Name: "bad", Dir: "/src", IsDir: true},
	})
	require.Error(t, err, "a failed listing should fail expansion")

	var expErr *transfer.ExpansionError
	require.ErrorAs(t, err, &expErr, "error should be an expansion error")
	assert.Equal(t, "/src/bad", expErr.Path)
	assert.ErrorIs(t, err, backend.ErrPermission, "cause should be preserved")

	assert.Equal(t, transfer.StatusError, b.Status(), "batch should end in error")
	assert.Empty(t, b.Units(), "no partial unit list should be kept")

	for range events {
		// drained; the channel closes with the batch
	}

	_, err = b.Start(ctx)
	assert.Error(t, err, "a failed batch cannot start")

	src.AssertExpectations(t)
}

func TestExpandRejectsSecondCall(t *testing.T) {
	ctx := testContext(t)
	src := memTree(t, map[string]string{"/src/a.txt": "a"})

	b := newExpanded(t, ctx, transfer.Options{Source: src, Destination: billyfs.NewMemory()})
	err := b.Expand(ctx, topEntries(t, src, "/src"))
	assert.Error(t, err, "expanding twice should fail")
}

func TestExpandSkipsDotEntries(t *testing.T) {
	ctx := testContext(t)

	b, err := transfer.New(transfer.Options{Source: billyfs.NewMemory(), Destination: billyfs.NewMemory()})
	require.NoError(t, err)

	require.NoError(t, b.Expand(ctx, []backend.Entry{
		{Name: ".", IsDir: true},
		{Name: "..", IsDir: true},
		{Name: "real.txt", Dir: "/src", Size: 7},
	}))
	assert.Equal(t, []string{"real.txt"}, unitPaths(b.Units()))
	assert.Equal(t, int64(7), b.TotalBytes())
}
