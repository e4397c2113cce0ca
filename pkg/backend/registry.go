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

package backend

import (
	"context"
	"sort"
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// Factory builds a backend
type Factory func(ctx context.Context) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend factory available under name
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// 🏭 Open builds the backend registered under name
func Open(ctx context.Context, name string) (Backend, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("backend %s not found, options: %s", name, strings.Join(Registered(), ", "))
	}

	b, err := factory(ctx)
	if err != nil {
		return nil, errors.Errorf("opening %s backend: %w", name, err)
	}
	return b, nil
}

// Registered lists the registered backend names in sorted order
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	options := make([]string, 0, len(registry))
	for k := range registry {
		options = append(options, k)
	}
	sort.Strings(options)
	return options
}
