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

// Package backend defines the storage capability the transfer engine drives.
package backend

import (
	"context"
	"io"
	"os"
	"time"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNotFound is returned when a path does not exist
	ErrNotFound = errors.New("not found")
	// ErrPermission is returned when a path cannot be read or written
	ErrPermission = errors.New("permission denied")
	// ErrAlreadyExists is returned by Makedir when the target name is taken
	ErrAlreadyExists = errors.New("already exists")
	// ErrIO is returned for stream failures
	ErrIO = errors.New("i/o error")
)

// 📄 Entry describes a file or directory as reported by a backend
type Entry struct {
	Name    string      // Base name
	Dir     string      // Parent path in the backend's namespace
	Size    int64       // Size in bytes (meaningless for directories)
	IsDir   bool        // Whether the entry is a directory
	Mode    os.FileMode // Permission bits
	ModTime time.Time   // Last modification time
}

// ChunkFunc receives the byte count of every chunk written by PutStream
type ChunkFunc func(n int64)

// 🔌 Backend is the set of filesystem operations a batch needs from a storage system.
// A batch holds two of them: one for the source and one for the destination.
type Backend interface {
	// Name returns a short identifier for the backend (e.g. "os")
	Name() string
	// List returns the children of dir
	List(ctx context.Context, dir string) ([]Entry, error)
	// Stat returns the entry at path
	Stat(ctx context.Context, path string) (Entry, error)
	// Exists reports whether path exists; lack of access reads as false
	Exists(ctx context.Context, path string) bool
	// Makedir creates parent/name and returns its full path
	Makedir(ctx context.Context, parent, name string) (string, error)
	// GetStream opens path for reading
	GetStream(ctx context.Context, path string) (io.ReadCloser, error)
	// PutStream creates path and writes r to it, calling onChunk after every written chunk.
	// An existing path fails with ErrAlreadyExists before r is read.
	PutStream(ctx context.Context, r io.Reader, path string, onChunk ChunkFunc) error
	// Join composes a path using the backend's separator rules
	Join(parts ...string) string
}

// 🗑️ Remover is implemented by backends that can delete entries. Move batches need it on the source.
type Remover interface {
	Delete(ctx context.Context, path string) error
}

// Path returns the full path of the entry in b's namespace
func (e Entry) Path(b Backend) string {
	return b.Join(e.Dir, e.Name)
}
