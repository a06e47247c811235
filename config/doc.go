// Package config loads the service configuration.
//
// Values start from Default, are overlaid by an optional YAML file and then
// by environment variables named after the env tags of the struct tree:
//
//	RAG_RETRIEVER_TEXT_THRESHOLD=0.6
//	RAG_RERANKER_ENDPOINT_BASE_URL=http://localhost:8000
//	RAG_CHAT_HISTORY_LIMIT=6
//
// A .env file, when present, seeds the environment without overriding it.
package config
