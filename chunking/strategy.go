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


package chunking

import (
	"fmt"

	"github.com/poiesic/vectorline/config"
	"github.com/poiesic/vectorline/core"
)

// SplitFunc turns cleaned text into ordered chunk texts under a config.
type SplitFunc func(text string, cfg *config.ChunkingConfig) ([]string, error)

// strategies is the fixed strategy registry. "sentence_based" is a
// compatibility alias for "sentence_boundary".
var strategies = map[string]SplitFunc{
	"fixed_token":       windowChunks,
	"sliding_window":    windowChunks,
	"sentence_boundary": sentenceChunks,
	"sentence_based":    sentenceChunks,
	"html_structure":    htmlChunks,
}

// resolveStrategy returns the split function registered under name.
// Returns core.ErrUnknownStrategy for anything not in the registry.
func resolveStrategy(name string) (SplitFunc, error) {
	fn, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: chunking strategy %q", core.ErrUnknownStrategy, name)
	}
	return fn, nil
}

// StrategyNames returns the registered strategy names, aliases included.
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	return names
}
