// Package config implements the layered configuration for the retrieval
// core (A1): defaults, overlaid by an optional YAML (or TOML) file,
// overlaid by .env/environment variables, overlaid by explicit CLI
// overrides, then validated.
package config

// Config holds the full resolved configuration. Precedence: CLI flags >
// env vars > .env > config file > defaults.
type Config struct {
	Dimension int             `yaml:"dimension"`
	Chunking  Chunking        `yaml:"chunking"`
	Retrieval Retrieval       `yaml:"retrieval"`
	Chat      Chat            `yaml:"chat"`
	Paths     Paths           `yaml:"paths"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Server    Server          `yaml:"server"`
}

// Chunking holds the ingestion-time sliding-window parameters.
type Chunking struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// Retrieval holds the recall+rerank parameters.
type Retrieval struct {
	TopKRecall          int     `yaml:"top_k_recall"`
	MaxArticles         int     `yaml:"max_articles"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// Chat holds the LLM sampling parameters used by the query rewriter and,
// at the HTTP boundary, answer generation.
type Chat struct {
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Paths holds the on-disk locations of the four durable artifacts.
type Paths struct {
	Index            string `yaml:"index"`
	DocMap           string `yaml:"doc_map"`
	Metadata         string `yaml:"metadata"`
	ArticleEmbeddings string `yaml:"article_embeddings"`
}

// EmbedderConfig points at the embedding backend.
type EmbedderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	ModelPath string `yaml:"model"`
}

// GeneratorConfig points at the chat-completions backend used for query
// rewriting.
type GeneratorConfig struct {
	BaseURL  string `yaml:"base_url"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// Server holds the HTTP boundary's listen address and request timeout.
type Server struct {
	Listen         string `yaml:"listen"`
	RequestTimeout int    `yaml:"request_timeout_seconds"`
}
