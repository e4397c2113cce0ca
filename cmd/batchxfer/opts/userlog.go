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


package opts

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/batchxfer/pkg/transfer"
)

// 📢 UserLogger provides user-friendly feedback about batch results
type UserLogger struct {
	log zerolog.Logger // for debug/error logging
}

// 🎯 NewUserLogger creates a new user logger
func NewUserLogger(ctx context.Context) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
	}
}

// 📊 LogReport prints the outcome of a finished batch
func (u *UserLogger) LogReport(report *transfer.Report) {
	summary := report.Summary()

	switch report.Status {
	case transfer.StatusDone:
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).Println(summary)
		u.log.Info().Str("batch", report.BatchID).Msg(summary)
	case transfer.StatusPartial:
		pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Println(summary)
		for _, f := range report.Failures() {
			pterm.Warning.Printfln("%s: %s", f.Path(), transfer.Reason(f.Err))
		}
		u.log.Warn().Str("batch", report.BatchID).Msg(summary)
	default:
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println(summary)
		u.log.Error().Str("batch", report.BatchID).Msg(summary)
	}
}

// 📦 LogStateChange logs a change to the overall state
func (u *UserLogger) LogStateChange(description string) {
	printer := pterm.Info.WithPrefix(pterm.Prefix{Text: "📦"})
	printer.Println(description)
	u.log.Info().Msg(description)
}

// 🔍 LogValidation logs validation results
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	if valid {
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).Println(description)
		u.log.Info().Msg(description)
		return
	}
	if err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println(description)
		pterm.Error.Println(err)
		u.log.Error().Err(err).Msg(description)
		return
	}
	pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Println(description)
	u.log.Warn().Msg(description)
}
