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

// Package billyfs adapts go-billy filesystems to the backend capability.
package billyfs

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/walteh/batchxfer/pkg/backend"
	"gitlab.com/tozd/go/errors"
)

// DefaultChunkSize is the buffer size used by PutStream
const DefaultChunkSize = 32 * 1024

func init() {
	backend.Register("os", func(ctx context.Context) (backend.Backend, error) {
		return NewOS(), nil
	})
	backend.Register("mem", func(ctx context.Context) (backend.Backend, error) {
		return NewMemory(), nil
	})
}

// 💾 FS implements backend.Backend and backend.Remover on top of a billy.Filesystem
type FS struct {
	fs        billy.Filesystem
	name      string
	chunkSize int
	mu        *sync.Mutex // set for filesystems that are not safe for concurrent use
}

var (
	_ backend.Backend = (*FS)(nil)
	_ backend.Remover = (*FS)(nil)
)

// 🏭 New wraps an existing billy filesystem
func New(name string, bfs billy.Filesystem) *FS {
	return &FS{
		fs:        bfs,
		name:      name,
		chunkSize: DefaultChunkSize,
	}
}

// NewOS returns a backend over the native filesystem. Paths are absolute.
func NewOS() *FS {
	return New("os", osfs.New("/"))
}

// NewMemory returns an empty in-memory backend
func NewMemory() *FS {
	b := New("mem", memfs.New())
	b.mu = &sync.Mutex{}
	return b
}

func (b *FS) guard() func() {
	if b.mu == nil {
		return func() {}
	}
	b.mu.Lock()
	return b.mu.Unlock
}

// WithChunkSize sets the PutStream buffer size
func (b *FS) WithChunkSize(n int) *FS {
	if n > 0 {
		b.chunkSize = n
	}
	return b
}

// Filesystem exposes the wrapped billy filesystem
func (b *FS) Filesystem() billy.Filesystem {
	return b.fs
}

func (b *FS) Name() string {
	return b.name
}

func (b *FS) Join(parts ...string) string {
	return b.fs.Join(parts...)
}

func (b *FS) List(ctx context.Context, dir string) ([]backend.Entry, error) {
	unlock := b.guard()
	infos, err := b.fs.ReadDir(dir)
	unlock()
	if err != nil {
		return nil, translate("list", dir, err)
	}

	entries := make([]backend.Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, toEntry(dir, info))
	}
	return entries, nil
}

func (b *FS) Stat(ctx context.Context, path string) (backend.Entry, error) {
	unlock := b.guard()
	info, err := b.fs.Stat(path)
	unlock()
	if err != nil {
		return backend.Entry{}, translate("stat", path, err)
	}
	return toEntry(filepath.Dir(path), info), nil
}

func (b *FS) Exists(ctx context.Context, path string) bool {
	defer b.guard()()
	_, err := b.fs.Stat(path)
	return err == nil
}

func (b *FS) Makedir(ctx context.Context, parent, name string) (string, error) {
	path := b.Join(parent, name)
	defer b.guard()()
	if _, err := b.fs.Stat(path); err == nil {
		return "", errors.Errorf("makedir %s: %w", path, backend.ErrAlreadyExists)
	}
	if err := b.fs.MkdirAll(path, 0o755); err != nil {
		return "", translate("makedir", path, err)
	}
	return path, nil
}

func (b *FS) GetStream(ctx context.Context, path string) (io.ReadCloser, error) {
	unlock := b.guard()
	f, err := b.fs.Open(path)
	unlock()
	if err != nil {
		return nil, translate("open", path, err)
	}
	return f, nil
}

func (b *FS) PutStream(ctx context.Context, r io.Reader, path string, onChunk backend.ChunkFunc) (err error) {
	unlock := b.guard()
	f, err := b.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	unlock()
	if err != nil {
		return translate("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Errorf("%w: closing %s: %v", backend.ErrIO, path, cerr)
		}
	}()

	buf := make([]byte, b.chunkSize)
	for {
		if cerr := ctx.Err(); cerr != nil {
			return errors.Errorf("writing %s: %w", path, cerr)
		}

		n, rerr := r.Read(buf)
		if n > 0 {
			unlock := b.guard()
			_, werr := f.Write(buf[:n])
			unlock()
			if werr != nil {
				return errors.Errorf("%w: writing %s: %v", backend.ErrIO, path, werr)
			}
			if onChunk != nil {
				onChunk(int64(n))
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return errors.Errorf("%w: reading source for %s: %v", backend.ErrIO, path, rerr)
		}
	}
}

func (b *FS) Delete(ctx context.Context, path string) error {
	defer b.guard()()
	if err := b.fs.Remove(path); err != nil {
		return translate("delete", path, err)
	}
	return nil
}

// 🔄 translate maps filesystem errors onto the backend sentinels
func translate(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errors.Errorf("%s %s: %w", op, path, backend.ErrNotFound)
	case errors.Is(err, fs.ErrPermission):
		return errors.Errorf("%s %s: %w", op, path, backend.ErrPermission)
	case errors.Is(err, fs.ErrExist):
		return errors.Errorf("%s %s: %w", op, path, backend.ErrAlreadyExists)
	default:
		return errors.Errorf("%w: %s %s: %v", backend.ErrIO, op, path, err)
	}
}

func toEntry(dir string, info os.FileInfo) backend.Entry {
	return backend.Entry{
		Name:    info.Name(),
		Dir:     dir,
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}
}
