// Package vectorindex implements the dense vector index (C1): a
// contiguous, brute-force inner-product index over L2-normalized
// float32 vectors, keyed by dense position (chunk id).
//
// It is grounded in the source's raw_faiss.store.FaissVectorStore
// (IndexFlatIP + a doc_map next_id counter), generalized from
// numpy/faiss calls to plain Go slices and a mutex-protected struct.
package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"ragcore/internal/model"
)

const normEpsilon = 1e-12

// FlatIndex is a process-owned, exclusive-lock-protected dense vector
// store. It satisfies model.Index.
type FlatIndex struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32 // position i holds the vector for chunk id i
}

// New creates an empty index for the given vector dimension.
func New(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

func (idx *FlatIndex) Dim() int { return idx.dim }

// Count returns the number of live vectors.
func (idx *FlatIndex) Count() int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return int64(len(idx.vectors))
}

// normalize returns a new L2-normalized copy of v: epsilon 1e-12 on the
// denominator, zero vectors stay zero.
func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	if norm < normEpsilon {
		copy(out, v)
		return out
	}
	scale := float32(1.0 / norm)
	for i, x := range v {
		out[i] = x * scale
	}
	return out
}

// Add appends vectors[M][D], normalizing each row, and returns the id of
// the first appended row.
func (idx *FlatIndex) Add(vectors [][]float32) (int64, error) {
	if len(vectors) == 0 {
		return 0, model.NewError(model.KindShapeError, "vectors must be a non-empty 2D array", nil)
	}
	for _, row := range vectors {
		if len(row) != idx.dim {
			return 0, model.NewError(model.KindDimensionMismatch,
				fmt.Sprintf("dimension %d mismatch %d", len(row), idx.dim), nil)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	firstID := int64(len(idx.vectors))
	for _, row := range vectors {
		idx.vectors = append(idx.vectors, normalize(row))
	}
	return firstID, nil
}

// Search returns up to k hits ordered by descending inner-product score,
// ties broken by ascending chunk id.
func (idx *FlatIndex) Search(query []float32, k int) ([]model.SearchResult, error) {
	if len(query) != idx.dim {
		return nil, model.NewError(model.KindDimensionMismatch,
			fmt.Sprintf("query dimension %d mismatch %d", len(query), idx.dim), nil)
	}
	if k <= 0 {
		return nil, nil
	}

	q := normalize(query)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]model.SearchResult, 0, len(idx.vectors))
	for id, vec := range idx.vectors {
		var dot float32
		for i, x := range vec {
			dot += x * q[i]
		}
		results = append(results, model.SearchResult{ChunkID: int64(id), Score: dot})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// RebuildKeeping constructs a new vector set from exactly the positions in
// ids (must be ascending, deduplicated by the caller), returning the
// relabeling map old_id -> new_id.
func (idx *FlatIndex) RebuildKeeping(ids []int64) (map[int64]int64, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	relabel := make(map[int64]int64, len(ids))
	kept := make([][]float32, 0, len(ids))
	for newID, oldID := range ids {
		if oldID < 0 || int(oldID) >= len(idx.vectors) {
			return nil, model.NewError(model.KindShapeError,
				fmt.Sprintf("rebuild_keeping: id %d out of range", oldID), nil)
		}
		kept = append(kept, idx.vectors[oldID])
		relabel[oldID] = int64(newID)
	}
	idx.vectors = kept
	return relabel, nil
}

// Reset drops all vectors.
func (idx *FlatIndex) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors = nil
}
