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

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

const (
	chunkIDPrefix     = "chunk"
	embeddingIDPrefix = "emb"
	idDigestLen       = 24 // hex chars kept from the digest
)

// CanonicalJSON renders v as JSON with object keys sorted at every level,
// so field declaration order never affects a derived identity.
func CanonicalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: canonicalize config: %v", ErrInvariantViolation, err)
	}
	// Round-trip through any: encoding/json sorts map keys on output.
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return "", fmt.Errorf("%w: canonicalize config: %v", ErrInvariantViolation, err)
	}
	out, err := json.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("%w: canonicalize config: %v", ErrInvariantViolation, err)
	}
	return string(out), nil
}

// ChunkHash computes the content identity of a chunk: a SHA-256 hex digest
// over the chunk text, the strategy name, and the canonicalized config.
// Identical text + strategy + config always hash to the same value.
func ChunkHash(chunkText, strategy, canonicalConfig string) string {
	sum := sha256.Sum256([]byte(chunkText + "|" + strategy + "|" + canonicalConfig))
	return hex.EncodeToString(sum[:])
}

// ChunkID derives the deterministic id of a chunk from its document, its
// position, and its content hash. Re-deriving from the same inputs always
// yields the same id.
func ChunkID(documentID string, chunkIndex int, chunkHash string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%s", documentID, chunkIndex, chunkHash))
	return chunkIDPrefix + "_" + hex.EncodeToString(sum[:])[:idDigestLen]
}

// EmbeddingConfigHash computes the identity of an embedding: a SHA-256 hex
// digest spanning the chunk hash, model, strategy, and the canonicalized
// non-secret config fields. Credentials must never be part of
// canonicalConfig, so rotating one cannot mint a duplicate embedding.
func EmbeddingConfigHash(chunkHash, model, strategy, canonicalConfig string) string {
	sum := sha256.Sum256([]byte(chunkHash + "|" + model + "|" + strategy + "|" + canonicalConfig))
	return hex.EncodeToString(sum[:])
}

// NewEmbeddingID generates a random opaque embedding id. Unlike chunk ids it
// is not content-derived; embedding identity is carried by the
// (tenant, chunk id, config hash) triple.
func NewEmbeddingID() string {
	u := uuid.New()
	return embeddingIDPrefix + "_" + hex.EncodeToString(u[:])[:idDigestLen]
}

// IndexKey derives a stable 64-bit key from an entity id using BLAKE2b.
// Vector index graphs address nodes by integer key; identical ids always
// map to the same key so re-publishing updates in place.
func IndexKey(id string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(id))
	return binary.LittleEndian.Uint64(h.Sum(nil))
}
