package model

import "context"

// Index is the capability set of the dense vector store (C1). Vectors
// passed to Add need not be normalized (the Embedder returns them as
// produced); implementations L2-normalize every row on add to enforce I5.
type Index interface {
	// Add appends vectors[M][D] and returns the id assigned to the first
	// row; subsequent rows get consecutive ids. Returns a *Error of
	// KindDimensionMismatch if any row has length != D (ragged input
	// included), KindShapeError if vectors is empty.
	Add(vectors [][]float32) (firstID int64, err error)

	// Search returns up to k hits ordered by descending score, ties broken
	// by ascending chunk id. Never returns -1 sentinels.
	Search(query []float32, k int) ([]SearchResult, error)

	// RebuildKeeping reconstructs the index from exactly the vectors at the
	// given (ascending, deduplicated) positions, returning the relabeling
	// map old_id -> new_id where new_id is the position of old_id in ids.
	RebuildKeeping(ids []int64) (map[int64]int64, error)

	// Reset drops all vectors, returning the index to a freshly initialized
	// empty state.
	Reset()

	// Count returns the number of live vectors.
	Count() int64

	// Dim returns the configured vector dimension.
	Dim() int

	// Save persists the index to path using write-tmp + atomic rename.
	Save(path string) error

	// Load restores the index from path, or initializes empty state (with
	// a timestamped backup of the corrupt file) if path is unparseable.
	Load(path string) error
}

// Embedder is the external text-embedding collaborator: a pure function
// text -> vector. Implementations are responsible for batching and retry;
// callers get a fixed-dimension,
// non-normalized vector back (normalization happens inside Index/C3
// consumers where required).
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator is the external text-generation collaborator, a pure
// prompt -> string function from the core's point of view.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DocMapStore is the capability set of the chunk map (C2).
type DocMapStore interface {
	Get(chunkID int64) (ChunkMeta, bool)
	Put(meta ChunkMeta)
	// Replace atomically swaps the entire chunk set and next-id counter,
	// used by delete-triggered rebuilds.
	Replace(nextID int64, chunks map[int64]ChunkMeta)
	NextID() int64
	Count() int
	Save(path string) error
	Load(path string) error
}

// ArticleEmbeddingStore is the capability set of C3.
type ArticleEmbeddingStore interface {
	Get(articleID string) ([]float32, bool)
	GetBatch(articleIDs []string) map[string][]float32
	Save(articleID string, vector []float32) error
	SaveBatch(items map[string][]float32) error
	Delete(articleID string) error
	DeleteBatch(articleIDs []string) error
	Exists(articleID string) bool
	Count() int

	// Load checks that the archive at path is readable, backing it up
	// with a timestamped `.corrupt.<unix-ts>` suffix and resetting it to
	// empty if it is not. All other operations load the archive lazily
	// per call, so Load exists purely to surface and recover from
	// corruption at startup rather than on the first write.
	Load(path string) error
}

// MetadataRepository is the capability set of C4.
type MetadataRepository interface {
	AddFile(meta FileMeta) error
	GetFile(fileID string) (FileMeta, bool)
	RemoveFile(fileID string) error
	ListAllFiles() []FileMeta

	AddArticle(meta ArticleMeta) error
	GetArticle(articleID string) (ArticleMeta, bool)
	RemoveArticle(articleID string) error
	ListAllArticles() []ArticleMeta
	ListArticlesByFile(fileID string) []ArticleMeta
}
