// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): relational storage, the vector index,
// the embedder, the extractor, the access resolver, the result cache,
// the query log and the job store.
package driven
