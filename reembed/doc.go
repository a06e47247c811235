// Package reembed re-embeds every stored information piece with a new or
// updated embedding model.
//
// Pieces are read in id order and processed in batches. Embedding calls are
// retried with exponential backoff, and vectors are normalized so cosine
// similarity search keeps working across models. The same retry helper backs
// the HTTP reranker client.
package reembed
