package core

//go:generate go run ../cmd/musgen

import "time"

// Status tracks the lifecycle of a pipeline record.
type Status string

const (
	// StatusPending marks a chunk that has been stored but not yet embedded.
	StatusPending Status = "pending"
	// StatusProcessed marks an embedding whose vector was generated successfully.
	StatusProcessed Status = "processed"
	// StatusFailed marks an embedding whose provider batch failed.
	// The record is kept so failures stay auditable without re-running the batch.
	StatusFailed Status = "failed"
)

// RawDocument is a tenant document as stored by the document store.
// The pipeline only ever reads it.
type RawDocument struct {
	TenantID   string
	DocumentID string
	Content    string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Chunk is one piece of a split document.
//
// Identity: ChunkHash is a content hash over (text, strategy, canonical
// config), and ChunkID derives deterministically from (document id, index,
// chunk hash). Re-chunking identical content therefore lands on the same
// stored record.
type Chunk struct {
	ChunkID    string
	TenantID   string
	DocumentID string
	ChunkIndex int
	ChunkText  string
	Strategy   string
	Config     string // canonical JSON of the chunking config used
	TokenSize  int    // requested target size in tokens
	TokenCount int    // actual token count of ChunkText
	Overlap    int
	ChunkHash  string
	Status     Status
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// NormalizationInfo records how (and whether) an embedding vector was
// normalized, keeping the pre-normalization magnitude for auditing.
type NormalizationInfo struct {
	Applied      bool
	NormType     string // "L2", "L1", or "none"
	OriginalNorm float64
}

// Embedding is a vector generated for a chunk under a specific embedding
// configuration.
//
// Identity: the (TenantID, ChunkID, ConfigHash) triple. ConfigHash spans the
// chunk hash, model, strategy, and non-secret config fields, so rotating a
// credential never creates a duplicate. EmbeddingID itself is a random
// opaque token: it only needs to be unique, not re-derivable.
type Embedding struct {
	EmbeddingID  string
	TenantID     string
	ChunkID      string
	DocumentID   string
	Model        string
	Strategy     string
	ConfigHash   string
	Dimension    int
	Vector       []float32
	Norm         NormalizationInfo
	Status       Status
	ErrorMessage string
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// VectorEntry is the shape published into a vector index, keyed by
// embedding id so re-publishing always updates in place.
type VectorEntry struct {
	EmbeddingID string
	TenantID    string
	DocumentID  string
	ChunkID     string
	ChunkText   string
	Vector      []float32
}

// ItemError is a captured per-item failure inside a batch result.
// Item-level failures are reported, never raised, so one bad item
// cannot abort its batch.
type ItemError struct {
	ItemID  string
	Message string
	Code    string
}

// Error codes used in ItemError.Code.
const (
	CodeChunkingFailed    = "CHUNKING_FAILED"
	CodeChunkNotFound     = "CHUNK_NOT_FOUND"
	CodeEmbeddingNotFound = "EMBEDDING_NOT_FOUND"
	CodeEmbeddingFailed   = "EMBEDDING_FAILED"
	CodeMissingIdentity   = "MISSING_EMBEDDING_ID"
	CodeNoVector          = "NO_VECTOR"
	CodeIndexFailed       = "INDEX_FAILED"
)
