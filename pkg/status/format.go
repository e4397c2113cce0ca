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
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/walteh/batchxfer/pkg/transfer"
)

// 🎨 Formatter turns batch state into short status messages
type Formatter interface {
	// FormatUnit formats a unit status message
	FormatUnit(u transfer.Unit) string

	// FormatProgress formats a byte progress message
	FormatProgress(done, total int64) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFormatter implements Formatter with emoji prefixes
type DefaultFormatter struct{}

func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

func (f *DefaultFormatter) FormatUnit(u transfer.Unit) string {
	switch u.Status {
	case transfer.UnitDone:
		if u.Renamed() {
			return fmt.Sprintf("🏷️  Renamed %s → %s", u.Path(), u.DestName)
		}
		if u.Entry.IsDir {
			return fmt.Sprintf("📁 Created %s", u.Path())
		}
		return fmt.Sprintf("✨ Copied %s", u.Path())
	case transfer.UnitError:
		return fmt.Sprintf("❌ Failed %s: %s", u.Path(), transfer.Reason(u.Err))
	case transfer.UnitSkipped:
		return fmt.Sprintf("⏭️  Skipped %s", u.Path())
	case transfer.UnitStarted:
		return fmt.Sprintf("🚚 Transferring %s", u.Path())
	default:
		return fmt.Sprintf("⏸️  Queued %s", u.Path())
	}
}

func (f *DefaultFormatter) FormatProgress(done, total int64) string {
	var percentage float64
	if total <= 0 {
		percentage = 100
	} else {
		percentage = float64(done) / float64(total) * 100
	}
	if percentage > 100 {
		percentage = 100
	}

	sizes := fmt.Sprintf("%s/%s", humanize.Bytes(uint64(max(done, 0))), humanize.Bytes(uint64(max(total, 0))))
	if done >= total {
		return fmt.Sprintf("✅ Progress: %s (%.0f%%)", sizes, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %s (%.0f%%)", sizes, percentage)
}

func (f *DefaultFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
