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


package core

import "errors"

// Structural pipeline errors. These are raised to the caller; item-level
// failures are captured as ItemError values inside batch results instead.
var (
	// ErrDocumentNotFound indicates the requested raw document does not exist
	// under the tenant.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrChunkNotFound indicates a chunk record does not exist under the tenant.
	ErrChunkNotFound = errors.New("chunk not found")

	// ErrEmbeddingNotFound indicates an embedding record does not exist, is not
	// processed, or has no vector.
	ErrEmbeddingNotFound = errors.New("embedding not found")

	// ErrUnknownStrategy indicates a strategy name that matches no registered
	// chunking or embedding strategy.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrUnknownProfile indicates a configuration profile name that matches
	// neither a strategy alias nor a stored profile.
	ErrUnknownProfile = errors.New("unknown profile")

	// ErrProviderContract indicates an embedding provider violated its
	// contract, e.g. returned a different number of vectors than texts.
	ErrProviderContract = errors.New("provider contract violation")

	// ErrMissingIdentity indicates a record is missing its identity field and
	// cannot be written to an index.
	ErrMissingIdentity = errors.New("missing identity")

	// ErrNoVector indicates no requested embedding carries a vector, so the
	// index dimension cannot be established.
	ErrNoVector = errors.New("no vector")

	// ErrDependencyUnavailable indicates a transient backend or network
	// condition. Safe to retry; retry policy belongs to the caller.
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrInvariantViolation indicates a programmer error such as malformed
	// configuration reaching a pipeline stage.
	ErrInvariantViolation = errors.New("invariant violation")
)
