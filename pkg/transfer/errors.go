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

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrTooManyConflicts is returned when no free destination name was found within the attempt cap
	ErrTooManyConflicts = errors.New("too many naming conflicts")
	// ErrParentFailed marks units skipped because an ancestor directory failed
	ErrParentFailed = errors.New("parent directory failed")
	// ErrCancelled marks a batch stopped by its caller
	ErrCancelled = errors.New("batch cancelled")
)

// 📂 ExpansionError reports a subtree listing failure. It is fatal to the batch.
type ExpansionError struct {
	Path string
	Err  error
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("expanding %s: %v", e.Path, e.Err)
}

func (e *ExpansionError) Unwrap() error {
	return e.Err
}

// 🏷️ ConflictResolutionError reports that a destination name could not be settled. It fails one unit.
type ConflictResolutionError struct {
	Parent string
	Name   string
	Err    error
}

func (e *ConflictResolutionError) Error() string {
	return fmt.Sprintf("resolving %s in %s: %v", e.Name, e.Parent, e.Err)
}

func (e *ConflictResolutionError) Unwrap() error {
	return e.Err
}

// 💥 TransferIOError reports a stream failure. It fails one unit.
type TransferIOError struct {
	Source      string
	Destination string
	Err         error
}

func (e *TransferIOError) Error() string {
	return fmt.Sprintf("transferring %s to %s: %v", e.Source, e.Destination, e.Err)
}

func (e *TransferIOError) Unwrap() error {
	return e.Err
}

// 🛑 CancellationError is returned by Start when the batch was cancelled
type CancellationError struct {
	Completed int
	Total     int
	Cause     error
}

func (e *CancellationError) Error() string {
	msg := fmt.Sprintf("batch cancelled after %d of %d units", e.Completed, e.Total)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *CancellationError) Is(target error) bool {
	return target == ErrCancelled
}

func (e *CancellationError) Unwrap() error {
	return e.Cause
}
