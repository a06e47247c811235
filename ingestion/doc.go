// Package ingestion loads information pieces into the store.
//
// The Pipeline type manages the ingestion workflow:
//   - Assigning content-derived ids to pieces that have none
//   - Validating pieces
//   - Optionally removing the previous pieces of each document
//   - Embedding in batches concurrently on a worker pool
//   - Upserting the embedded pieces
//
// Unlike retrieval, ingestion is not on the request path of a chat turn, so
// a failing batch fails the whole call and already written batches stay.
package ingestion
