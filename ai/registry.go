// Copyright 2025 Poiesic Systems
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


package ai

import (
	"fmt"
	"sync"

	"github.com/poiesic/vectorline/core"
)

// Registry maps strategy names to EmbeddingStrategy implementations.
// Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]EmbeddingStrategy
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]EmbeddingStrategy)}
}

// Register adds a strategy under its own name, replacing any previous
// registration for that name.
func (r *Registry) Register(strategy EmbeddingStrategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns the strategy registered under name.
// Returns core.ErrUnknownStrategy when nothing is registered for it.
func (r *Registry) Resolve(name string) (EmbeddingStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	strategy, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: embedding strategy %q", core.ErrUnknownStrategy, name)
	}
	return strategy, nil
}

// Names returns the registered strategy names, in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	return names
}
