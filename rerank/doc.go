// Package rerank provides retrieval.Reranker implementations.
//
// HTTPReranker calls a Cohere-compatible /rerank endpoint. LexicalReranker
// scores pieces by query term overlap and needs no external service.
package rerank
