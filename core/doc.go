// Package core holds the domain model of the content pipeline: the record
// types flowing between stages (RawDocument, Chunk, Embedding, VectorEntry),
// the content-hash identity scheme that makes every stage re-runnable, and
// the error taxonomy shared by all stages.
//
// Identity rules:
//   - Chunk hash: SHA-256 over chunk text + strategy + canonical config.
//   - Chunk id: derived from (document id, chunk index, chunk hash); pure.
//   - Embedding config hash: SHA-256 over chunk hash + model + strategy +
//     canonical non-secret config.
//   - Embedding id: random, unique per record, never re-derived.
package core
