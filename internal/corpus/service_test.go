package corpus

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"ragcore/internal/articlestore"
	"ragcore/internal/docmap"
	"ragcore/internal/metarepo"
	"ragcore/internal/model"
	"ragcore/internal/vectorindex"
)

// hashEmbedder is a deterministic fake embedder: it hashes text into a
// fixed-dimension vector so tests can assert on similarity without a real
// model. Near-identical texts get near-identical vectors.
type hashEmbedder struct{ dim int }

func (h hashEmbedder) vectorFor(text string) []float32 {
	v := make([]float32, h.dim)
	for i, r := range text {
		v[i%h.dim] += float32(r%31) + 1
	}
	return v
}

func (h hashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vectorFor(t)
	}
	return out, nil
}

func (h hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return h.vectorFor(text), nil
}

func newTestService(t *testing.T, cfg Config) (*Service, string, string, string) {
	t.Helper()
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "faiss.index")
	chunkMapPath := filepath.Join(dir, "doc_map.json")
	metaPath := filepath.Join(dir, "metadata.json")
	embedPath := filepath.Join(dir, "article_embeddings.npz")

	svc := NewService(
		cfg,
		vectorindex.New(8),
		docmap.New(),
		articlestore.New(embedPath),
		metarepo.New(metaPath),
		hashEmbedder{dim: 8},
		indexPath, chunkMapPath, metaPath,
		nil,
	)
	return svc, indexPath, chunkMapPath, metaPath
}

const lawText = "第一条 合同成立。\n第二条 合同生效。\n"

func TestAddThenList(t *testing.T) {
	svc, _, _, _ := newTestService(t, Config{ChunkSize: 10, ChunkOverlap: 2})

	fm, err := svc.AddFile(context.Background(), "law.txt", lawText)
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if fm.ChunkCount < 1 {
		t.Fatalf("expected at least one chunk, got %d", fm.ChunkCount)
	}
	if len(fm.ArticleIDs) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(fm.ArticleIDs))
	}

	files := svc.ListFiles()
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}

	// Each chunk references only the articles its window overlaps, so a
	// chunk may carry one or both ids; together they reference exactly the
	// file's two articles.
	inFile := map[string]bool{fm.ArticleIDs[0]: true, fm.ArticleIDs[1]: true}
	seen := map[string]bool{}
	for id := int64(0); id < int64(fm.ChunkCount); id++ {
		meta, ok := svc.chunks.Get(id)
		if !ok {
			t.Fatalf("chunk %d missing from chunk map", id)
		}
		if len(meta.ArticleIDs) == 0 {
			t.Fatalf("chunk %d references no article", id)
		}
		for _, aid := range meta.ArticleIDs {
			if !inFile[aid] {
				t.Fatalf("chunk %d references unknown article %q", id, aid)
			}
			seen[aid] = true
		}
	}
	if len(seen) != 2 {
		t.Fatalf("chunks reference %d distinct articles, want 2", len(seen))
	}
}

func TestAddFileDuplicateRejected(t *testing.T) {
	svc, _, _, _ := newTestService(t, Config{ChunkSize: 10, ChunkOverlap: 2})

	if _, err := svc.AddFile(context.Background(), "x.txt", "hello world"); err != nil {
		t.Fatalf("first AddFile: %v", err)
	}
	_, err := svc.AddFile(context.Background(), "x.txt", "hello again")
	if !model.IsKind(err, model.KindDuplicate) {
		t.Fatalf("expected Duplicate, got %v", err)
	}
}

func TestAddFileEmptyContentIsNoOp(t *testing.T) {
	svc, _, _, _ := newTestService(t, Config{ChunkSize: 10, ChunkOverlap: 2})

	fm, err := svc.AddFile(context.Background(), "empty.txt", "")
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if fm.ChunkCount != 0 {
		t.Fatalf("expected 0 chunks, got %d", fm.ChunkCount)
	}
}

func TestDeleteRebuildKeepsSecondFileIDsBelowCount(t *testing.T) {
	svc, _, _, _ := newTestService(t, Config{ChunkSize: 10, ChunkOverlap: 2})
	ctx := context.Background()

	fm1, err := svc.AddFile(ctx, "a.txt", "第一条 条款甲。\n第二条 条款乙。\n")
	if err != nil {
		t.Fatalf("AddFile a: %v", err)
	}
	fm2, err := svc.AddFile(ctx, "b.txt", "第三条 条款丙。\n")
	if err != nil {
		t.Fatalf("AddFile b: %v", err)
	}

	if err := svc.DeleteFile(ctx, fm1.FileID); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	if svc.index.Count() != int64(fm2.ChunkCount) {
		t.Fatalf("index count = %d, want %d", svc.index.Count(), fm2.ChunkCount)
	}
	if svc.chunks.Count() != int(svc.index.Count()) {
		t.Fatalf("chunk map size = %d, want %d", svc.chunks.Count(), svc.index.Count())
	}
	for id := int64(0); id < svc.index.Count(); id++ {
		meta, ok := svc.chunks.Get(id)
		if !ok || meta.ChunkID >= svc.index.Count() {
			t.Fatalf("chunk id %d not below count %d (present=%v)", meta.ChunkID, svc.index.Count(), ok)
		}
	}
}

func TestDeleteTwiceReturnsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t, Config{ChunkSize: 10, ChunkOverlap: 2})
	ctx := context.Background()

	fm, err := svc.AddFile(ctx, "a.txt", "第一条 条款甲。\n")
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if err := svc.DeleteFile(ctx, fm.FileID); err != nil {
		t.Fatalf("first DeleteFile: %v", err)
	}
	err = svc.DeleteFile(ctx, fm.FileID)
	if !model.IsKind(err, model.KindNotFound) {
		t.Fatalf("expected NotFound on second delete, got %v", err)
	}
}

func TestSplitChunksBoundary(t *testing.T) {
	if err := (Config{ChunkSize: 5, ChunkOverlap: 4}).Validate(); err != nil {
		t.Fatalf("overlap == size-1 should be legal: %v", err)
	}
	if err := (Config{ChunkSize: 5, ChunkOverlap: 5}).Validate(); err == nil {
		t.Fatalf("overlap == size should fail validation")
	}
}

func TestArticleTitleExtraction(t *testing.T) {
	articles := splitArticles("第十二条 示例条款。\nno pattern here\n")
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "第十二条" {
		t.Fatalf("unexpected title: %q", articles[0].Title)
	}
	if articles[1].Title != unknownTitle {
		t.Fatalf("unexpected fallback title: %q", articles[1].Title)
	}

	var totalLen int
	for _, a := range articles {
		totalLen += a.Length
	}
	if totalLen != len("第十二条 示例条款。\nno pattern here\n") {
		t.Fatalf("article intervals do not cover content: total=%d", totalLen)
	}
}

func TestNormalizeZeroVectorStaysZero(t *testing.T) {
	dim := 4
	idx := vectorindex.New(dim)
	zero := make([]float32, dim)
	if _, err := idx.Add([][]float32{zero}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := idx.Search(zero, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || math.Abs(float64(results[0].Score)) > 1e-9 {
		t.Fatalf("expected zero-vector query to score 0, got %+v", results)
	}
}
