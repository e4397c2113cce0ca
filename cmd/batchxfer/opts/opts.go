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
	"github.com/walteh/batchxfer/pkg/backend"
	"github.com/walteh/batchxfer/pkg/config"
	"github.com/walteh/batchxfer/pkg/operation"
)

// Job is one validated config with its backends opened
type Job struct {
	Config      *config.Config
	Source      backend.Backend
	Destination backend.Backend
}

// Options returns operation options for the job
func (j *Job) Options() operation.Options {
	return operation.Options{
		Config:      j.Config,
		Source:      j.Source,
		Destination: j.Destination,
	}
}

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Jobs       []*Job
	Async      bool
	Progress   bool
	UserLogger *UserLogger
}
