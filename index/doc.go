// Package index publishes processed embeddings into named vector indexes
// and reconciles index geometry.
//
// Entries are keyed by embedding id, so re-publishing an embedding to the
// same index always updates in place. When a publish batch's dimension
// differs from the index's stored dimension, the index is deleted and
// recreated with the new geometry — a destructive reconciliation, not a
// migration: whatever the old index held is gone.
package index
