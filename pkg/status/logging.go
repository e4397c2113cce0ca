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
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/walteh/batchxfer/pkg/transfer"
)

const (
	unitIndent  = 2  // spaces per nesting level
	nameWidth   = 40 // width for the indented name
	statusWidth = 9  // width for status text
)

// FormatUnitLine renders a unit as one tree line, indented by depth
func FormatUnitLine(u transfer.Unit) string {
	var prefix string
	switch u.Status {
	case transfer.UnitDone:
		prefix = color.GreenString("✓")
	case transfer.UnitError:
		prefix = color.RedString("✗")
	case transfer.UnitSkipped:
		prefix = color.YellowString("-")
	case transfer.UnitStarted:
		prefix = color.CyanString("⟳")
	default:
		prefix = color.HiBlackString("•")
	}

	depth := 0
	if u.SubPath != "" {
		depth = strings.Count(u.SubPath, "/") + 1
	}

	name := u.Entry.Name
	size := humanize.Bytes(uint64(max(u.Entry.Size, 0)))
	if u.Entry.IsDir {
		name += "/"
		size = ""
	}

	namePart := fmt.Sprintf("%-*s", nameWidth, strings.Repeat(" ", depth*unitIndent)+name)
	statusPart := fmt.Sprintf("%-*s", statusWidth, string(u.Status))

	return strings.TrimRight(fmt.Sprintf("%s %s %s %s", prefix, namePart, statusPart, size), " ")
}
