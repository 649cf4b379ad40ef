package retrieval

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"ragcore/internal/articlestore"
	"ragcore/internal/corpus"
	"ragcore/internal/docmap"
	"ragcore/internal/metarepo"
	"ragcore/internal/vectorindex"
)

func newAnswerFixture(t *testing.T, gen stubGenerator) (*corpus.Service, *Service) {
	t.Helper()
	dir := t.TempDir()
	idx := vectorindex.New(8)
	chunks := docmap.New()
	arts := articlestore.New(filepath.Join(dir, "article_embeddings.npz"))
	meta := metarepo.New(filepath.Join(dir, "metadata.json"))
	embedder := hashEmbedder{dim: 8}

	ingest := corpus.NewService(
		corpus.Config{ChunkSize: 20, ChunkOverlap: 4},
		idx, chunks, arts, meta, embedder,
		filepath.Join(dir, "faiss.index"), filepath.Join(dir, "doc_map.json"), filepath.Join(dir, "metadata.json"),
		nil,
	)
	retrieve := NewService(
		Config{TopKRecall: 5, MaxArticles: 3, SimilarityThreshold: 0.01},
		idx, chunks, arts, meta, embedder, gen,
	)
	return ingest, retrieve
}

func TestAnswerQuestionNoArticlesSkipsGenerator(t *testing.T) {
	_, retrieve := newAnswerFixture(t, stubGenerator{out: "should not be used"})
	answer, err := retrieve.AnswerQuestion(context.Background(), "anything")
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if answer.Generated {
		t.Fatalf("expected no generation when there are no articles")
	}
	if answer.Text != noArticlesText {
		t.Fatalf("expected the no-articles placeholder, got %q", answer.Text)
	}
}

func TestAnswerQuestionFormatsStructuredAnalysis(t *testing.T) {
	ingest, retrieve := newAnswerFixture(t, stubGenerator{
		out: `{"conclusion": "yes", "reasoning": "because X", "caveats": ["check Y"]}`,
	})
	ctx := context.Background()
	if _, err := ingest.AddFile(ctx, "law.txt", "第一条 合同成立的条件。\n"); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	answer, err := retrieve.AnswerQuestion(ctx, "合同成立的条件。")
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if !answer.Generated {
		t.Fatalf("expected generation to run")
	}
	if !strings.Contains(answer.Text, "Conclusion: yes") || !strings.Contains(answer.Text, "check Y") {
		t.Fatalf("expected formatted analysis, got %q", answer.Text)
	}
}

func TestAnswerQuestionFallsBackToRawTextWhenNotJSON(t *testing.T) {
	ingest, retrieve := newAnswerFixture(t, stubGenerator{out: "plain prose answer"})
	ctx := context.Background()
	if _, err := ingest.AddFile(ctx, "law.txt", "第一条 合同成立的条件。\n"); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	answer, err := retrieve.AnswerQuestion(ctx, "合同成立的条件。")
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if answer.Text != "plain prose answer" {
		t.Fatalf("expected raw generator output, got %q", answer.Text)
	}
}
