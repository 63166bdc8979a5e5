// Package search provides the embedding-backed code search index behind
// the search_code tool.
//
// The orchestrator treats search as a black box: index content in, ranked
// snippets out. Storage is chromem-go, an embedded vector database with
// optional on-disk persistence.
package search
