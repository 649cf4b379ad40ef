// Package corpus implements the ingestion pipeline (C5) and the
// delete-by-file operation, the two transactions that cut across the
// vector index (C1), chunk map (C2), article embedding store (C3), and
// metadata repository (C4). Grounded in the source's
// vector_store.service.VectorStoreService.add_file/delete_file.
package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"ragcore/internal/appstate"
	"ragcore/internal/model"
)

// Config carries the ingestion-time parameters.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

func (c Config) Validate() error {
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return model.NewError(model.KindShapeError,
			fmt.Sprintf("chunk_overlap (%d) must be >= 0 and < chunk_size (%d)", c.ChunkOverlap, c.ChunkSize), nil)
	}
	return nil
}

// Service is the write-path orchestrator. All mutations (AddFile,
// DeleteFile) are serialized by mu: the transaction spans every store at
// once, so one exclusive in-process lock covers the whole write path.
type Service struct {
	mu sync.Mutex

	cfg      Config
	index    model.Index
	chunks   model.DocMapStore
	articles model.ArticleEmbeddingStore
	meta     model.MetadataRepository
	embedder model.Embedder

	indexPath    string
	chunkMapPath string
	metaPath     string

	logger *slog.Logger
	stats  *appstate.Stats
}

func NewService(
	cfg Config,
	index model.Index,
	chunks model.DocMapStore,
	articles model.ArticleEmbeddingStore,
	meta model.MetadataRepository,
	embedder model.Embedder,
	indexPath, chunkMapPath, metaPath string,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg: cfg, index: index, chunks: chunks, articles: articles, meta: meta,
		embedder: embedder, indexPath: indexPath, chunkMapPath: chunkMapPath, metaPath: metaPath,
		logger: logger, stats: appstate.NewStats(),
	}
}

// Stats exposes the live counters the status view (A7) polls. Never nil.
func (s *Service) Stats() *appstate.Stats {
	return s.stats
}

// ListFiles returns every live FileMeta.
func (s *Service) ListFiles() []model.FileMeta {
	return s.meta.ListAllFiles()
}

// AddFile runs the full ingestion pipeline as one durable write
// transaction.
func (s *Service) AddFile(ctx context.Context, filename, content string) (model.FileMeta, error) {
	if err := s.cfg.Validate(); err != nil {
		return model.FileMeta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Step 1: duplicate check.
	for _, f := range s.meta.ListAllFiles() {
		if f.Filename == filename {
			return model.FileMeta{}, model.NewError(model.KindDuplicate,
				fmt.Sprintf("%s already indexed", filename), nil)
		}
	}

	now := time.Now().UTC()
	fileID := newOpaqueID()

	// Step 2: chunk split.
	rawChunks := splitChunks(content, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	// Step 3: article split.
	rawArticles := splitArticles(content)

	if len(rawChunks) == 0 {
		// Empty content is a graceful no-op add with FileMeta.chunks == 0.
		fm := model.FileMeta{FileID: fileID, Filename: filename, Size: len(content), ChunkCount: 0, CreatedAt: now}
		if err := s.meta.AddFile(fm); err != nil {
			s.stats.AddErrors(1)
			return model.FileMeta{}, model.NewError(model.KindIoFailure, "persist empty file", err)
		}
		s.stats.AddFilesIndexed(1)
		s.stats.SetLastFileID(fileID)
		return fm, nil
	}

	// Step 4: chunk embedding (batch).
	chunkTexts := make([]string, len(rawChunks))
	for i, c := range rawChunks {
		chunkTexts[i] = c.Text
	}
	chunkVectors, err := s.embedder.EmbedBatch(ctx, chunkTexts)
	if err != nil {
		s.stats.AddErrors(1)
		return model.FileMeta{}, model.NewError(model.KindBackendError, "embed chunks", err)
	}
	if len(chunkVectors) != len(rawChunks) {
		return model.FileMeta{}, model.NewError(model.KindBackendError,
			fmt.Sprintf("embedder returned %d vectors for %d chunks", len(chunkVectors), len(rawChunks)), nil)
	}

	// Step 5: article embedding (per-text, not shared with chunk embeddings).
	articleVectors := make([][]float32, len(rawArticles))
	articleIDs := make([]string, len(rawArticles))
	for i, a := range rawArticles {
		articleIDs[i] = newOpaqueID()
		vec, err := s.embedder.EmbedQuery(ctx, a.Text)
		if err != nil {
			return model.FileMeta{}, model.NewError(model.KindBackendError, "embed article", err)
		}
		articleVectors[i] = vec
	}

	// Step 6: chunk<->article alignment.
	chunkArticleIDs := make([][]string, len(rawChunks))
	for ci, c := range rawChunks {
		cs, ce := c.Offset, c.Offset+len(c.Text)
		var ids []string
		for ai, a := range rawArticles {
			as, ae := a.Offset, a.Offset+a.Length
			if overlaps(cs, ce, as, ae) {
				ids = append(ids, articleIDs[ai])
			}
		}
		chunkArticleIDs[ci] = ids
	}

	// Step 7a: append chunk vectors to C1, stamp ids, persist C1+C2.
	firstID, err := s.index.Add(chunkVectors)
	if err != nil {
		return model.FileMeta{}, err
	}
	for i, c := range rawChunks {
		chunkID := firstID + int64(i)
		s.chunks.Put(model.ChunkMeta{
			ChunkID:    chunkID,
			FileID:     fileID,
			Offset:     c.Offset,
			Length:     len(c.Text),
			Text:       c.Text,
			ArticleIDs: chunkArticleIDs[i],
			CreatedAt:  now,
		})
	}
	if err := s.index.Save(s.indexPath); err != nil {
		return model.FileMeta{}, model.NewError(model.KindIoFailure, "persist vector index", err)
	}
	if err := s.chunks.Save(s.chunkMapPath); err != nil {
		return model.FileMeta{}, model.NewError(model.KindIoFailure, "persist chunk map", err)
	}

	// Step 7b: persist FileMeta.
	fm := model.FileMeta{
		FileID: fileID, Filename: filename, Size: len(content),
		ChunkCount: len(rawChunks), ArticleIDs: articleIDs, CreatedAt: now,
	}
	if err := s.meta.AddFile(fm); err != nil {
		return model.FileMeta{}, model.NewError(model.KindIoFailure, "persist file meta", err)
	}

	// Step 7c: persist each ArticleMeta, then its embedding.
	for i, a := range rawArticles {
		am := model.ArticleMeta{
			ArticleID: articleIDs[i], FileID: fileID, Title: a.Title,
			Offset: a.Offset, Length: a.Length, Text: a.Text, CreatedAt: now,
		}
		if err := s.meta.AddArticle(am); err != nil {
			return model.FileMeta{}, model.NewError(model.KindIoFailure, "persist article meta", err)
		}
		if err := s.articles.Save(articleIDs[i], articleVectors[i]); err != nil {
			return model.FileMeta{}, model.NewError(model.KindIoFailure, "persist article embedding", err)
		}
	}

	s.stats.AddFilesIndexed(1)
	s.stats.AddChunksIndexed(int64(len(rawChunks)))
	s.stats.AddArticlesIndexed(int64(len(rawArticles)))
	s.stats.SetLastFileID(fileID)

	s.logger.Info("ingest complete", "file_id", fileID, "filename", filename,
		"chunks", len(rawChunks), "articles", len(rawArticles))
	return fm, nil
}

// DeleteFile implements the cross-cutting delete-by-file algorithm: rebuild
// the vector index over the surviving chunks, then remove the file's
// metadata, articles, and article embeddings.
func (s *Service) DeleteFile(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fm, ok := s.meta.GetFile(fileID)
	if !ok {
		return model.NewError(model.KindNotFound, fmt.Sprintf("file %s not found", fileID), nil)
	}

	keepIDs := s.computeKeepIDs(fileID)

	if len(keepIDs) == 0 {
		s.index.Reset()
		s.chunks.Replace(0, map[int64]model.ChunkMeta{})
	} else {
		relabel, err := s.index.RebuildKeeping(keepIDs)
		if err != nil {
			return model.NewError(model.KindIoFailure, "rebuild vector index", err)
		}
		newChunks := make(map[int64]model.ChunkMeta, len(keepIDs))
		for oldID, newID := range relabel {
			meta, ok := s.chunks.Get(oldID)
			if !ok {
				continue
			}
			meta.ChunkID = newID
			newChunks[newID] = meta
		}
		s.chunks.Replace(int64(len(keepIDs)), newChunks)
	}

	if err := s.index.Save(s.indexPath); err != nil {
		return model.NewError(model.KindIoFailure, "persist vector index", err)
	}
	if err := s.chunks.Save(s.chunkMapPath); err != nil {
		return model.NewError(model.KindIoFailure, "persist chunk map", err)
	}

	if err := s.meta.RemoveFile(fileID); err != nil {
		return model.NewError(model.KindIoFailure, "remove file meta", err)
	}
	for _, articleID := range fm.ArticleIDs {
		if err := s.meta.RemoveArticle(articleID); err != nil {
			return model.NewError(model.KindIoFailure, "remove article meta", err)
		}
	}
	if err := s.articles.DeleteBatch(fm.ArticleIDs); err != nil {
		return model.NewError(model.KindIoFailure, "remove article embeddings", err)
	}

	s.stats.AddFilesDeleted(1)
	s.stats.SetLastFileID(fileID)

	s.logger.Info("delete complete", "file_id", fileID, "kept_chunks", len(keepIDs))
	return nil
}

// computeKeepIDs returns, in ascending order, every live chunk id not
// owned by fileID. It must walk the full live chunk set, since the chunk
// map is the only place a chunk's owning file is recorded.
func (s *Service) computeKeepIDs(fileID string) []int64 {
	var keep []int64
	n := s.index.Count()
	for id := int64(0); id < n; id++ {
		meta, ok := s.chunks.Get(id)
		if !ok {
			continue
		}
		if meta.FileID != fileID {
			keep = append(keep, id)
		}
	}
	sort.Slice(keep, func(i, j int) bool { return keep[i] < keep[j] })
	return keep
}
