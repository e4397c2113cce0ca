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

package config

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

type hclEndpoint struct {
	Backend string `hcl:"backend,optional"`
	Root    string `hcl:"root"`
}

type hclConfig struct {
	Source              hclEndpoint `hcl:"source,block"`
	Destination         hclEndpoint `hcl:"destination,block"`
	Entries             []string    `hcl:"entries,optional"`
	Exclude             []string    `hcl:"exclude,optional"`
	Mode                string      `hcl:"mode,optional"`
	Concurrency         int         `hcl:"concurrency,optional"`
	RenameSuffix        string      `hcl:"rename_suffix,optional"`
	MaxConflictAttempts int         `hcl:"max_conflict_attempts,optional"`
	ProgressIntervalMs  int         `hcl:"progress_interval_ms,optional"`
	Async               bool        `hcl:"async,optional"`
}

// evalContext exposes env.NAME and home to expressions, e.g. root = "${home}/backup"
func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}

	home, _ := os.UserHomeDir()

	vars := map[string]cty.Value{
		"home": cty.StringVal(home),
		"env":  cty.MapValEmpty(cty.String),
	}
	if len(env) > 0 {
		vars["env"] = cty.MapVal(env)
	}
	return &hcl.EvalContext{Variables: vars}
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	var hc hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(), &hc)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &Config{
		Source:              Endpoint(hc.Source),
		Destination:         Endpoint(hc.Destination),
		Entries:             hc.Entries,
		Exclude:             hc.Exclude,
		Mode:                hc.Mode,
		Concurrency:         hc.Concurrency,
		RenameSuffix:        hc.RenameSuffix,
		MaxConflictAttempts: hc.MaxConflictAttempts,
		ProgressIntervalMs:  hc.ProgressIntervalMs,
		Async:               hc.Async,
	}, nil
}
