package config

// Default returns a config with the retrieval core's baked-in defaults.
func Default() Config {
	return Config{
		Dimension: 1024,
		Chunking: Chunking{
			Size:    2500,
			Overlap: 250,
		},
		Retrieval: Retrieval{
			TopKRecall:          10,
			MaxArticles:         5,
			SimilarityThreshold: 0.35,
		},
		Chat: Chat{
			Temperature: 0.0,
			TopP:        1.0,
			MaxTokens:   512,
		},
		Paths: Paths{
			Index:             ".ragcore/faiss.index",
			DocMap:            ".ragcore/doc_map.json",
			Metadata:          ".ragcore/metadata.json",
			ArticleEmbeddings: ".ragcore/article_embeddings.npz",
		},
		Embedder: EmbedderConfig{
			BaseURL:   "https://api.openai.com",
			ModelPath: "text-embedding-3-small",
		},
		Generator: GeneratorConfig{
			BaseURL:  "https://api.openai.com",
			Endpoint: "/v1/chat/completions",
			Model:    "gpt-4o-mini",
		},
		Server: Server{
			Listen:         "127.0.0.1:8080",
			RequestTimeout: 30,
		},
	}
}
