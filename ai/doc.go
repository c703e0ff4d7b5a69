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


// Package ai defines the embedding provider abstraction used by the
// embedding pipeline.
//
// An EmbeddingStrategy turns a batch of texts into vectors. Concrete
// implementations live in subpackages (openai, bedrock, local, mock) and
// are looked up by name through a Registry, so the pipeline never depends
// on a specific provider.
//
// The batch contract is strict: a strategy must return exactly one vector
// per input text, in input order, or an error. Strategies never partially
// succeed; partial-failure accounting is the pipeline's job, not theirs.
package ai
