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


// Package embedding turns stored chunks into embedding records.
//
// The stage is idempotent by (tenant, chunk id, config hash): before any
// provider call, each chunk's identity is looked up and hits are counted
// as skips, returning the existing embedding ids. Only the misses are
// preprocessed and sent to the provider as one ordered batch.
//
// A provider failure, or a provider returning the wrong number of
// vectors, fails the whole batch: every chunk in it gets a persisted
// record with status failed and the error message, so failures are
// auditable and a retry at the same identity does not stack duplicates.
package embedding
