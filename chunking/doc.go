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


// Package chunking splits tenant documents into chunks and persists them
// with content-derived identities.
//
// A chunk's hash covers its text, the strategy name, and the canonical
// JSON of the chunking config, so re-chunking unchanged content upserts
// onto the same records instead of duplicating them. The Engine
// orchestrates the stage: load document, clean text, run the named
// strategy, build records, bulk upsert.
//
// Strategies are a fixed registry: fixed_token, sliding_window,
// sentence_boundary (alias sentence_based), and html_structure. Adding a
// strategy is adding one entry, not touching dispatch.
package chunking
