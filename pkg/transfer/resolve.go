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
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/batchxfer/pkg/backend"
	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultRenameSuffix separates the original name from the attempt counter
	DefaultRenameSuffix = "_"
	// DefaultMaxConflictAttempts caps the rename loop
	DefaultMaxConflictAttempts = 1000
)

// 🔧 ResolveOptions controls conflict resolution
type ResolveOptions struct {
	Suffix      string
	MaxAttempts int

	claims *claimSet
}

// claimSet holds the destination file paths already handed to a unit of the batch.
// A nil set claims nothing.
type claimSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func newClaimSet() *claimSet {
	return &claimSet{paths: map[string]struct{}{}}
}

// claim reserves path and reports whether it was still free
func (c *claimSet) claim(path string) bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.paths[path]; taken {
		return false
	}
	c.paths[path] = struct{}{}
	return true
}

func (o ResolveOptions) withDefaults() ResolveOptions {
	if o.Suffix == "" {
		o.Suffix = DefaultRenameSuffix
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxConflictAttempts
	}
	return o
}

func (o ResolveOptions) candidate(name string, i int) string {
	return name + o.Suffix + strconv.Itoa(i)
}

// 🏷️ ResolveName returns the name entry will use inside parent on dst.
// Directories are created (or an existing directory is reused); files are only named.
// An existing entry is never overwritten.
func ResolveName(ctx context.Context, dst backend.Backend, parent string, entry backend.Entry, opts ResolveOptions) (string, error) {
	opts = opts.withDefaults()

	var (
		name string
		err  error
	)
	if entry.IsDir {
		name, err = resolveDir(ctx, dst, parent, entry.Name, opts)
	} else {
		name, err = resolveFile(ctx, dst, parent, entry.Name, opts)
	}
	if err != nil {
		return "", &ConflictResolutionError{Parent: parent, Name: entry.Name, Err: err}
	}

	if name != entry.Name {
		zerolog.Ctx(ctx).Debug().
			Str("parent", parent).
			Str("wanted", entry.Name).
			Str("resolved", name).
			Msg("renamed to avoid conflict")
	}
	return name, nil
}

// resolveFile picks the first name that is neither on dst nor claimed by a sibling unit.
// The claim stays in place so a concurrent unit never gets the same name.
func resolveFile(ctx context.Context, dst backend.Backend, parent, wanted string, opts ResolveOptions) (string, error) {
	free := func(name string) bool {
		path := dst.Join(parent, name)
		return !dst.Exists(ctx, path) && opts.claims.claim(path)
	}

	if free(wanted) {
		return wanted, nil
	}

	for i := 1; i <= opts.MaxAttempts; i++ {
		name := opts.candidate(wanted, i)
		if free(name) {
			return name, nil
		}
	}
	return "", errors.Errorf("%d candidates for %s taken: %w", opts.MaxAttempts, wanted, ErrTooManyConflicts)
}

func resolveDir(ctx context.Context, dst backend.Backend, parent, wanted string, opts ResolveOptions) (string, error) {
	ok, err := claimDir(ctx, dst, parent, wanted)
	if err != nil {
		return "", err
	}
	if ok {
		return wanted, nil
	}

	// a file holds the wanted name
	for i := 1; i <= opts.MaxAttempts; i++ {
		name := opts.candidate(wanted, i)
		ok, err := claimDir(ctx, dst, parent, name)
		if err != nil {
			return "", err
		}
		if ok {
			return name, nil
		}
	}
	return "", errors.Errorf("%d candidates for %s taken: %w", opts.MaxAttempts, wanted, ErrTooManyConflicts)
}

// claimDir makes parent/name usable as a directory. It reports false when a non-directory holds the name.
func claimDir(ctx context.Context, dst backend.Backend, parent, name string) (bool, error) {
	path := dst.Join(parent, name)

	if existing, err := dst.Stat(ctx, path); err == nil {
		return existing.IsDir, nil
	}

	if _, err := dst.Makedir(ctx, parent, name); err != nil {
		if !errors.Is(err, backend.ErrAlreadyExists) {
			return false, errors.Errorf("creating directory %s: %w", path, err)
		}
		// lost a race with another writer; look again
		existing, serr := dst.Stat(ctx, path)
		if serr != nil {
			return false, errors.Errorf("creating directory %s: %w", path, err)
		}
		return existing.IsDir, nil
	}
	return true, nil
}
