package badger

import "fmt"

// Key prefixes for different data types
const (
	documentPrefix      = "rawdoc"
	chunkPrefix         = "chkrec"
	chunkHashPrefix     = "chkhsh"
	embeddingPrefix     = "embrec"
	embeddingHashPrefix = "embhsh"
)

// makeDocumentKey generates a key for a raw document.
func makeDocumentKey(tenantID, documentID string) []byte {
	return fmt.Appendf(nil, "%s:%s:%s", documentPrefix, tenantID, documentID)
}

// makeChunkKey generates a key for a chunk record by id.
func makeChunkKey(tenantID, chunkID string) []byte {
	return fmt.Appendf(nil, "%s:%s:%s", chunkPrefix, tenantID, chunkID)
}

// makeChunkScanPrefix generates the iteration prefix for a tenant's chunks.
func makeChunkScanPrefix(tenantID string) []byte {
	return fmt.Appendf(nil, "%s:%s:", chunkPrefix, tenantID)
}

// makeChunkHashKey generates the identity-index key for a chunk.
// Upserts are matched on (tenant, document, chunk hash); the value is the
// chunk id the identity currently maps to.
func makeChunkHashKey(tenantID, documentID, chunkHash string) []byte {
	return fmt.Appendf(nil, "%s:%s:%s:%s", chunkHashPrefix, tenantID, documentID, chunkHash)
}

// makeEmbeddingKey generates a key for an embedding record by id.
func makeEmbeddingKey(tenantID, embeddingID string) []byte {
	return fmt.Appendf(nil, "%s:%s:%s", embeddingPrefix, tenantID, embeddingID)
}

// makeEmbeddingScanPrefix generates the iteration prefix for a tenant's embeddings.
func makeEmbeddingScanPrefix(tenantID string) []byte {
	return fmt.Appendf(nil, "%s:%s:", embeddingPrefix, tenantID)
}

// makeEmbeddingHashKey generates the identity-index key for an embedding.
// Upserts are matched on (tenant, chunk id, config hash); the value is the
// embedding id the identity currently maps to.
func makeEmbeddingHashKey(tenantID, chunkID, configHash string) []byte {
	return fmt.Appendf(nil, "%s:%s:%s:%s", embeddingHashPrefix, tenantID, chunkID, configHash)
}
