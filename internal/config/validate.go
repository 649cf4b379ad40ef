package config

import "fmt"

// Validate checks range/enum constraints so a malformed config file or
// env override fails fast with an actionable message.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("CONFIG_INVALID: nil config")
	}
	if cfg.Dimension <= 0 {
		return fmt.Errorf("CONFIG_INVALID: dimension must be > 0, got %d", cfg.Dimension)
	}
	if cfg.Chunking.Size <= 0 {
		return fmt.Errorf("CONFIG_INVALID: chunking.size must be > 0, got %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap < 0 || cfg.Chunking.Overlap >= cfg.Chunking.Size {
		return fmt.Errorf("CONFIG_INVALID: chunking.overlap (%d) must be >= 0 and < chunking.size (%d)",
			cfg.Chunking.Overlap, cfg.Chunking.Size)
	}
	if cfg.Retrieval.TopKRecall <= 0 {
		return fmt.Errorf("CONFIG_INVALID: retrieval.top_k_recall must be > 0, got %d", cfg.Retrieval.TopKRecall)
	}
	if cfg.Retrieval.MaxArticles <= 0 {
		return fmt.Errorf("CONFIG_INVALID: retrieval.max_articles must be > 0, got %d", cfg.Retrieval.MaxArticles)
	}
	if cfg.Retrieval.SimilarityThreshold < 0 || cfg.Retrieval.SimilarityThreshold > 1 {
		return fmt.Errorf("CONFIG_INVALID: retrieval.similarity_threshold must be in [0,1], got %v",
			cfg.Retrieval.SimilarityThreshold)
	}
	if cfg.Chat.Temperature < 0 {
		return fmt.Errorf("CONFIG_INVALID: chat.temperature must be >= 0, got %v", cfg.Chat.Temperature)
	}
	if cfg.Chat.TopP <= 0 || cfg.Chat.TopP > 1 {
		return fmt.Errorf("CONFIG_INVALID: chat.top_p must be in (0,1], got %v", cfg.Chat.TopP)
	}
	if cfg.Paths.Index == "" || cfg.Paths.DocMap == "" || cfg.Paths.Metadata == "" || cfg.Paths.ArticleEmbeddings == "" {
		return fmt.Errorf("CONFIG_INVALID: all four artifact paths must be set")
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("CONFIG_INVALID: server.request_timeout_seconds must be > 0, got %d", cfg.Server.RequestTimeout)
	}
	return nil
}
