package retrieval

import (
	"context"
	"math"
	"sort"

	"ragcore/internal/model"
)

// Config carries the retrieval-time parameters: top_k_retrieval (coarse
// recall width), max_retrieved_articles, and similarity_threshold (the
// low-confidence cutoff).
type Config struct {
	TopKRecall          int
	MaxArticles         int
	SimilarityThreshold float64
}

// Service is the read-path orchestrator for C6 (two-stage recall+rerank)
// composed with C7 (query rewrite). It never mutates any store, so unlike
// corpus.Service it needs no exclusive lock of its own.
type Service struct {
	cfg      Config
	index    model.Index
	chunks   model.DocMapStore
	articles model.ArticleEmbeddingStore
	meta     model.MetadataRepository
	embedder model.Embedder
	gen      model.Generator
}

func NewService(
	cfg Config,
	index model.Index,
	chunks model.DocMapStore,
	articles model.ArticleEmbeddingStore,
	meta model.MetadataRepository,
	embedder model.Embedder,
	gen model.Generator,
) *Service {
	return &Service{cfg: cfg, index: index, chunks: chunks, articles: articles, meta: meta, embedder: embedder, gen: gen}
}

// Retrieve runs the full pipeline: rewrite the query, embed it, recall
// candidate chunks, expand to their owning articles, rerank the articles
// by cosine similarity against the query, then truncate to max_articles
// and flag low confidence.
func (s *Service) Retrieve(ctx context.Context, query string) (model.RetrievalResult, error) {
	rewrite := RewriteQuery(ctx, s.gen, query)
	searchWords := rewrite.SearchWords

	qVec, err := s.embedder.EmbedQuery(ctx, searchWords)
	if err != nil {
		return model.RetrievalResult{}, model.NewError(model.KindBackendError, "embed query", err)
	}

	topK := s.cfg.TopKRecall
	if topK <= 0 {
		topK = 10
	}
	recalled, err := s.index.Search(qVec, topK)
	if err != nil {
		return model.RetrievalResult{}, err
	}

	articleIDs := make(map[string]struct{})
	for _, hit := range recalled {
		chunkMeta, ok := s.chunks.Get(hit.ChunkID)
		if !ok {
			continue
		}
		for _, aid := range chunkMeta.ArticleIDs {
			articleIDs[aid] = struct{}{}
		}
	}

	type scored struct {
		score float64
		meta  model.ArticleMeta
	}
	var candidates []scored
	for aid := range articleIDs {
		vec, ok := s.articles.Get(aid)
		if !ok {
			continue
		}
		articleMeta, ok := s.meta.GetArticle(aid)
		if !ok {
			continue
		}
		candidates = append(candidates, scored{score: cosineSimilarity(qVec, vec), meta: articleMeta})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].meta.ArticleID < candidates[j].meta.ArticleID
	})

	maxArticles := s.cfg.MaxArticles
	if maxArticles <= 0 {
		maxArticles = 5
	}
	if len(candidates) > maxArticles {
		candidates = candidates[:maxArticles]
	}

	hits := make([]model.ArticleHit, len(candidates))
	for i, c := range candidates {
		hits[i] = model.ArticleHit{Score: c.score, Article: c.meta}
	}

	lowConfidence := len(hits) == 0 || hits[0].Score < s.cfg.SimilarityThreshold

	return model.RetrievalResult{
		Articles:      hits,
		LowConfidence: lowConfidence,
		SearchWords:   searchWords,
	}, nil
}

// cosineSimilarity does not assume normalized inputs, since article
// embeddings are stored as returned by the embedder, unlike the chunk
// index which normalizes on add.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
