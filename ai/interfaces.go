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
	"context"

	"github.com/poiesic/vectorline/config"
)

// EmbeddingStrategy generates vector embeddings for batches of text.
// Implementations must be safe for concurrent use.
type EmbeddingStrategy interface {
	// Name returns the strategy identifier used in embedding configs,
	// e.g. "openai" or "bedrock".
	Name() string

	// Embed generates one embedding per input text, in input order.
	// Returning fewer or more vectors than inputs is a contract violation
	// the caller treats as a batch failure. An error fails the whole batch.
	Embed(ctx context.Context, texts []string, cfg *config.EmbeddingConfig) ([][]float32, error)
}
