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
	"path"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/batchxfer/pkg/backend"
	"gitlab.com/tozd/go/errors"
)

// 📂 Expand builds the unit list from the top-level source entries and moves the batch to queued.
// A listing failure anywhere in the tree fails the whole batch.
func (b *Batch) Expand(ctx context.Context, entries []backend.Entry) error {
	logger := zerolog.Ctx(ctx)

	if s := b.Status(); s != StatusCalculating {
		return errors.Errorf("batch %s cannot expand from status %s", b.id, s)
	}

	top := make([]backend.Entry, len(entries))
	for i, e := range entries {
		if e.Dir == "" {
			e.Dir = b.opts.SourceRoot
		}
		top[i] = e
	}

	var units []*unit
	if err := b.expand(ctx, top, "", -1, &units); err != nil {
		b.setStatus(StatusError)
		b.events.close()
		logger.Error().Err(err).Str("batch", b.id).Msg("expansion failed")
		return err
	}

	var total int64
	for _, u := range units {
		if !u.entry.IsDir {
			total += u.entry.Size
		}
	}

	b.mu.Lock()
	b.units = units
	b.totalBytes = total
	b.mu.Unlock()
	b.setStatus(StatusQueued)

	logger.Debug().
		Str("batch", b.id).
		Int("units", len(units)).
		Int64("total_bytes", total).
		Msg("batch expanded")
	return nil
}

// expand appends files first, then each directory followed by its subtree
func (b *Batch) expand(ctx context.Context, entries []backend.Entry, subPath string, parent int, out *[]*unit) error {
	if err := ctx.Err(); err != nil {
		return &ExpansionError{Path: subPath, Err: err}
	}

	var files, dirs []backend.Entry
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." || b.excluded(subPath, e.Name) {
			continue
		}
		if e.IsDir {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}

	add := func(e backend.Entry) int {
		idx := len(*out)
		*out = append(*out, &unit{
			index:   idx,
			parent:  parent,
			entry:   e,
			subPath: subPath,
			status:  UnitQueued,
			ready:   subPath == "",
			destDir: b.topLevelDestDir(subPath),
		})
		return idx
	}

	for _, f := range files {
		add(f)
	}

	for _, d := range dirs {
		idx := add(d)

		dirPath := d.Path(b.opts.Source)
		children, err := b.opts.Source.List(ctx, dirPath)
		if err != nil {
			return &ExpansionError{Path: dirPath, Err: err}
		}
		if err := b.expand(ctx, children, path.Join(subPath, d.Name), idx, out); err != nil {
			return err
		}
	}
	return nil
}

func (b *Batch) topLevelDestDir(subPath string) string {
	if subPath == "" {
		return b.opts.DestinationRoot
	}
	return ""
}

func (b *Batch) excluded(subPath, name string) bool {
	if len(b.opts.Exclude) == 0 {
		return false
	}
	rel := path.Join(subPath, name)
	for _, pattern := range b.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
