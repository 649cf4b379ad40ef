package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ragcore/internal/aiclient"
	"ragcore/internal/articlestore"
	"ragcore/internal/audit"
	"ragcore/internal/config"
	"ragcore/internal/corpus"
	"ragcore/internal/docmap"
	"ragcore/internal/metarepo"
	"ragcore/internal/retrieval"
	"ragcore/internal/vectorindex"
)

// app holds every wired component a command needs. Built fresh per
// invocation, one-shot, with no daemon state shared across commands.
type app struct {
	cfg      *config.Config
	index    *vectorindex.FlatIndex
	chunks   *docmap.Store
	articles *articlestore.Store
	meta     *metarepo.Repository
	embedder *aiclient.Client
	gen      *aiclient.Client
	audit    *audit.Store

	corpus   *corpus.Service
	retrieve *retrieval.Service
}

// buildApp loads configuration and wires every store and service a
// command might need. Callers close the audit store when done.
func buildApp(configPath string) (*app, error) {
	cfg, err := config.Load(config.Options{ConfigPath: configPath, EnvFile: ".env"})
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{
		filepath.Dir(cfg.Paths.Index), filepath.Dir(cfg.Paths.DocMap),
		filepath.Dir(cfg.Paths.Metadata), filepath.Dir(cfg.Paths.ArticleEmbeddings),
	} {
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create state dir %s: %w", dir, err)
			}
		}
	}

	idx := vectorindex.New(cfg.Dimension)
	if err := idx.Load(cfg.Paths.Index); err != nil {
		return nil, fmt.Errorf("load vector index: %w", err)
	}
	chunks := docmap.New()
	if err := chunks.Load(cfg.Paths.DocMap); err != nil {
		return nil, fmt.Errorf("load chunk map: %w", err)
	}
	articles := articlestore.New(cfg.Paths.ArticleEmbeddings)
	if err := articles.Load(cfg.Paths.ArticleEmbeddings); err != nil {
		return nil, fmt.Errorf("load article embeddings: %w", err)
	}
	meta := metarepo.New(cfg.Paths.Metadata)
	if err := meta.Load(); err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	embedder := aiclient.NewClient(cfg.Embedder.BaseURL, cfg.Embedder.APIKey, cfg.Embedder.ModelPath, "")
	gen := aiclient.NewClient(cfg.Generator.BaseURL, cfg.Generator.APIKey, "", cfg.Generator.Model)
	gen.ChatParams = aiclient.ChatParams{Temperature: cfg.Chat.Temperature, TopP: cfg.Chat.TopP, MaxTokens: cfg.Chat.MaxTokens}

	auditPath := filepath.Join(filepath.Dir(cfg.Paths.Metadata), "operations.db")
	auditStore := audit.NewStore(auditPath)

	logger := slog.Default()
	corpusSvc := corpus.NewService(
		corpus.Config{ChunkSize: cfg.Chunking.Size, ChunkOverlap: cfg.Chunking.Overlap},
		idx, chunks, articles, meta, embedder,
		cfg.Paths.Index, cfg.Paths.DocMap, cfg.Paths.Metadata,
		logger,
	)
	retrieveSvc := retrieval.NewService(
		retrieval.Config{
			TopKRecall:          cfg.Retrieval.TopKRecall,
			MaxArticles:         cfg.Retrieval.MaxArticles,
			SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		},
		idx, chunks, articles, meta, embedder, gen,
	)

	return &app{
		cfg: cfg, index: idx, chunks: chunks, articles: articles, meta: meta,
		embedder: embedder, gen: gen, audit: auditStore,
		corpus: corpusSvc, retrieve: retrieveSvc,
	}, nil
}

func (a *app) Close() error {
	if a.audit != nil {
		return a.audit.Close()
	}
	return nil
}
