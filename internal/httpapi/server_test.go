package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"ragcore/internal/articlestore"
	"ragcore/internal/corpus"
	"ragcore/internal/docmap"
	"ragcore/internal/metarepo"
	"ragcore/internal/retrieval"
	"ragcore/internal/vectorindex"
)

type fakeEmbedder struct{ dim int }

func (f fakeEmbedder) vec(text string) []float32 {
	v := make([]float32, f.dim)
	for i, r := range text {
		v[i%f.dim] += float32(r%31) + 1
	}
	return v
}
func (f fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vec(t)
	}
	return out, nil
}
func (f fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) { return f.vec(text), nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	idx := vectorindex.New(8)
	chunks := docmap.New()
	arts := articlestore.New(filepath.Join(dir, "article_embeddings.npz"))
	meta := metarepo.New(filepath.Join(dir, "metadata.json"))
	embedder := fakeEmbedder{dim: 8}

	corpusSvc := corpus.NewService(
		corpus.Config{ChunkSize: 20, ChunkOverlap: 4},
		idx, chunks, arts, meta, embedder,
		filepath.Join(dir, "faiss.index"), filepath.Join(dir, "doc_map.json"), filepath.Join(dir, "metadata.json"),
		nil,
	)
	retrieveSvc := retrieval.NewService(
		retrieval.Config{TopKRecall: 5, MaxArticles: 3, SimilarityThreshold: 0.9},
		idx, chunks, arts, meta, embedder, nil,
	)
	return New(corpusSvc, retrieveSvc, nil, nil)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestAddDocThenListDoc(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/doc", addDocRequest{Name: "law.txt", Content: "第一条 合同成立。\n"})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /doc: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var added statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &added); err != nil || added.Status != "ok" {
		t.Fatalf("unexpected POST /doc response: %s", rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/doc", nil)
	var listed docListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode GET /doc: %v", err)
	}
	if len(listed.Docs) != 1 || listed.Docs[0].Filename != "law.txt" {
		t.Fatalf("unexpected doc list: %+v", listed.Docs)
	}
}

func TestAddDocDuplicateReturnsStatusErrorNot500(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/doc", addDocRequest{Name: "law.txt", Content: "text"})

	rec := doJSON(t, s, http.MethodPost, "/doc", addDocRequest{Name: "law.txt", Content: "text"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200 for a domain error, got %d", rec.Code)
	}
	var got statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got.Status != "error" {
		t.Fatalf("expected status=error, got %s", rec.Body.String())
	}
}

func TestDeleteUnknownFileReturnsStatusErrorNot500(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodDelete, "/doc/does-not-exist", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200 for a domain error, got %d", rec.Code)
	}
	var got statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got.Status != "error" {
		t.Fatalf("expected status=error, got %s", rec.Body.String())
	}
}

func TestChatWithEmptyCorpusReturnsResponseField(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/chat", chatRequest{Text: "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode /chat response: %v", err)
	}
	if got.Response == "" {
		t.Fatalf("expected a non-empty response even with an empty corpus")
	}
}
