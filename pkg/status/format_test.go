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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walteh/batchxfer/pkg/backend"
	"github.com/walteh/batchxfer/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

func TestDefaultFormatterUnit(t *testing.T) {
	f := NewDefaultFormatter()

	tests := []struct {
		name string
		unit transfer.Unit
		want string
	}{
		{
			name: "copied_file",
			unit: transfer.Unit{Entry: backend.Entry{Name: "a.txt"}, SubPath: "docs", Status: transfer.UnitDone, DestName: "a.txt"},
			want: "✨ Copied docs/a.txt",
		},
		{
			name: "created_directory",
			unit: transfer.Unit{Entry: backend.Entry{Name: "docs", IsDir: true}, Status: transfer.UnitDone, DestName: "docs"},
			want: "📁 Created docs",
		},
		{
			name: "renamed",
			unit: transfer.Unit{Entry: backend.Entry{Name: "fileD"}, Status: transfer.UnitDone, DestName: "fileD_1"},
			want: "🏷️  Renamed fileD → fileD_1",
		},
		{
			name: "failed",
			unit: transfer.Unit{
				Entry:  backend.Entry{Name: "x"},
				Status: transfer.UnitError,
				Err:    errors.Errorf("create: %w", backend.ErrPermission),
			},
			want: "❌ Failed x: permission denied",
		},
		{
			name: "skipped",
			unit: transfer.Unit{Entry: backend.Entry{Name: "f"}, SubPath: "dirY", Status: transfer.UnitSkipped},
			want: "⏭️  Skipped dirY/f",
		},
		{
			name: "started",
			unit: transfer.Unit{Entry: backend.Entry{Name: "big.iso"}, Status: transfer.UnitStarted},
			want: "🚚 Transferring big.iso",
		},
		{
			name: "queued",
			unit: transfer.Unit{Entry: backend.Entry{Name: "later"}, Status: transfer.UnitQueued},
			want: "⏸️  Queued later",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatUnit(tt.unit))
		})
	}
}

func TestDefaultFormatterProgress(t *testing.T) {
	f := NewDefaultFormatter()

	tests := []struct {
		name        string
		done, total int64
		want        string
	}{
		{name: "zero_progress", done: 0, total: 1000, want: "⏳ Progress: 0 B/1.0 kB (0%)"},
		{name: "half", done: 500, total: 1000, want: "⏳ Progress: 500 B/1.0 kB (50%)"},
		{name: "complete", done: 1000, total: 1000, want: "✅ Progress: 1.0 kB/1.0 kB (100%)"},
		{name: "empty_batch", done: 0, total: 0, want: "✅ Progress: 0 B/0 B (100%)"},
		{name: "over_complete", done: 1200, total: 1000, want: "✅ Progress: 1.2 kB/1.0 kB (100%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatProgress(tt.done, tt.total))
		})
	}
}

func TestDefaultFormatterError(t *testing.T) {
	f := NewDefaultFormatter()
	assert.Equal(t, "", f.FormatError(nil))
	assert.Equal(t, "❌ Error: boom", f.FormatError(errors.New("boom")))
}
