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
	"context"
	"io"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/batchxfer/pkg/backend"
	"github.com/walteh/batchxfer/pkg/backend/billyfs"
	"github.com/walteh/batchxfer/pkg/transfer"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

// memTree builds an in-memory backend. Keys ending in "/" are directories, the rest are files.
func memTree(t *testing.T, tree map[string]string) *billyfs.FS {
	t.Helper()
	b := billyfs.NewMemory()
	for p, content := range tree {
		if strings.HasSuffix(p, "/") {
			require.NoError(t, b.Filesystem().MkdirAll(strings.TrimSuffix(p, "/"), 0o755))
			continue
		}
		require.NoError(t, util.WriteFile(b.Filesystem(), p, []byte(content), 0o644))
	}
	return b
}

func readFile(t *testing.T, b *billyfs.FS, p string) string {
	t.Helper()
	r, err := b.GetStream(context.Background(), p)
	require.NoError(t, err, "opening %s", p)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err, "reading %s", p)
	return string(data)
}

func topEntries(t *testing.T, b backend.Backend, root string) []backend.Entry {
	t.Helper()
	entries, err := b.List(context.Background(), root)
	require.NoError(t, err, "listing %s", root)
	return entries
}

// newExpanded builds and expands a batch over every entry under /src
func newExpanded(t *testing.T, ctx context.Context, opts transfer.Options) *transfer.Batch {
	t.Helper()
	if opts.SourceRoot == "" {
		opts.SourceRoot = "/src"
	}
	if opts.DestinationRoot == "" {
		opts.DestinationRoot = "/dst"
	}
	b, err := transfer.New(opts)
	require.NoError(t, err, "creating batch")
	require.NoError(t, b.Expand(ctx, topEntries(t, opts.Source, opts.SourceRoot)), "expanding batch")
	return b
}

func unitByPath(t *testing.T, units []transfer.Unit, p string) transfer.Unit {
	t.Helper()
	for _, u := range units {
		if u.Path() == p {
			return u
		}
	}
	require.Failf(t, "unit not found", "no unit with path %s", p)
	return transfer.Unit{}
}

func unitPaths(units []transfer.Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Path()
	}
	return out
}

// faultBackend wraps a backend to inject failures and observe writes
type faultBackend struct {
	backend.Backend

	mu         sync.Mutex
	putErr     map[string]error // keyed by destination base name
	makedirErr map[string]error // keyed by directory name
	onPut      func(p string)
}

func (f *faultBackend) Makedir(ctx context.Context, parent, name string) (string, error) {
	f.mu.Lock()
	err, ok := f.makedirErr[name]
	f.mu.Unlock()
	if ok {
		return "", err
	}
	return f.Backend.Makedir(ctx, parent, name)
}

func (f *faultBackend) PutStream(ctx context.Context, r io.Reader, p string, onChunk backend.ChunkFunc) error {
	if f.onPut != nil {
		f.onPut(p)
	}
	f.mu.Lock()
	err, ok := f.putErr[path.Base(p)]
	f.mu.Unlock()
	if ok {
		return err
	}
	return f.Backend.PutStream(ctx, r, p, onChunk)
}

// mockBackend is a testify mock of the backend capability
type mockBackend struct {
	mock.Mock
}

var _ backend.Backend = (*mockBackend)(nil)

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Join(parts ...string) string { return path.Join(parts...) }

func (m *mockBackend) List(ctx context.Context, dir string) ([]backend.Entry, error) {
	args := m.Called(ctx, dir)
	entries, _ := args.Get(0).([]backend.Entry)
	return entries, args.Error(1)
}

func (m *mockBackend) Stat(ctx context.Context, p string) (backend.Entry, error) {
	args := m.Called(ctx, p)
	entry, _ := args.Get(0).(backend.Entry)
	return entry, args.Error(1)
}

func (m *mockBackend) Exists(ctx context.Context, p string) bool {
	return m.Called(ctx, p).Bool(0)
}

func (m *mockBackend) Makedir(ctx context.Context, parent, name string) (string, error) {
	args := m.Called(ctx, parent, name)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) GetStream(ctx context.Context, p string) (io.ReadCloser, error) {
	args := m.Called(ctx, p)
	r, _ := args.Get(0).(io.ReadCloser)
	return r, args.Error(1)
}

func (m *mockBackend) PutStream(ctx context.Context, r io.Reader, p string, onChunk backend.ChunkFunc) error {
	return m.Called(ctx, r, p, onChunk).Error(0)
}
