// Package mock provides a deterministic test double for the embedding
// strategy interface. The default behavior hashes each text into a stable
// pseudo-random vector; tests can override it through the EmbedFunc field.
package mock
