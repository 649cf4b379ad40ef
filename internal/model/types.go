// Package model holds the domain types and capability interfaces shared
// across the retrieval core: the vector index, the chunk and article
// stores, the metadata repository, and the external embedder/generator
// collaborators.
package model

import "time"

// FileMeta describes one ingested file. FileID is unique for the life of
// the file; Filename must be unique among live files.
type FileMeta struct {
	FileID     string    `json:"file_id"`
	Filename   string    `json:"filename"`
	Size       int       `json:"size"`
	ChunkCount int       `json:"chunks"`
	ArticleIDs []string  `json:"article_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// ArticleMeta describes one line-delimited article extracted from a file.
type ArticleMeta struct {
	ArticleID string    `json:"article_id"`
	FileID    string    `json:"file_id"`
	Title     string    `json:"title"`
	Offset    int       `json:"offset"`
	Length    int       `json:"length"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ChunkMeta describes one fixed-size sliding-window chunk. ChunkID is the
// chunk's position in the vector index and is only stable until the next
// delete-triggered rebuild.
type ChunkMeta struct {
	ChunkID    int64     `json:"chunk_id"`
	FileID     string    `json:"file_id"`
	Offset     int       `json:"offset"`
	Length     int       `json:"length"`
	Text       string    `json:"text"`
	ArticleIDs []string  `json:"article_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// SearchResult is one scored hit from the vector index, before article
// expansion.
type SearchResult struct {
	ChunkID int64
	Score   float32
}

// ArticleHit is one scored article from the rerank stage, the output of
// the retrieval pipeline.
type ArticleHit struct {
	Score   float64
	Article ArticleMeta
}

// RetrievalResult is the full output of the retrieval pipeline, including
// the low-confidence signal the caller must surface rather than treat as
// an error.
type RetrievalResult struct {
	Articles      []ArticleHit
	LowConfidence bool
	SearchWords   string
}

// RewriteResult is the structured output of the query rewriter.
type RewriteResult struct {
	SearchWords string
	Raw         map[string]any
}
