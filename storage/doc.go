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


// Package storage defines the store abstractions the pipeline stages consume.
//
// Each stage owns exactly one write surface: the chunking engine writes
// through ChunkStore, the embedding pipeline through EmbeddingStore, and
// all stages read documents through DocumentStore. Implementations must be
// thread-safe; every method takes a context for cancellation.
//
// Upsert semantics are the concurrency boundary of the whole system: chunk
// writes are keyed by (tenant, document, chunk hash) and embedding writes by
// (tenant, chunk id, config hash), so re-running a stage with unchanged
// inputs replaces records in place instead of duplicating them.
//
// Constructors in backend packages return these interfaces, not concrete
// types, so tests and alternative backends can swap in freely.
package storage
