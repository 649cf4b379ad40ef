// Package tui implements the status dashboard (A7): a read-only,
// bubbletea-driven view over corpus size, the last few operations logged
// by the operations log (A6), and the live counters in appstate.Stats.
package tui

import (
	"context"

	"ragcore/internal/appstate"
	"ragcore/internal/audit"
	"ragcore/internal/model"
)

// Source is the read-only view the dashboard polls. It never mutates
// core state: every method here is a plain lookup or count.
type Source interface {
	Files() []model.FileMeta
	Articles() []model.ArticleMeta
	VectorCount() int64
	Stats() appstate.Snapshot
	RecentOperations(ctx context.Context, limit int) ([]audit.Record, error)
}

// CorpusSource adapts the metadata repository, vector index and audit log
// into a Source without requiring those packages to know about the TUI.
type CorpusSource struct {
	Meta  model.MetadataRepository
	Index model.Index
	Stat  *appstate.Stats
	Audit *audit.Store
}

func (c CorpusSource) Files() []model.FileMeta       { return c.Meta.ListAllFiles() }
func (c CorpusSource) Articles() []model.ArticleMeta { return c.Meta.ListAllArticles() }
func (c CorpusSource) VectorCount() int64            { return c.Index.Count() }

func (c CorpusSource) Stats() appstate.Snapshot {
	if c.Stat == nil {
		return appstate.Snapshot{}
	}
	return c.Stat.Snapshot()
}

func (c CorpusSource) RecentOperations(ctx context.Context, limit int) ([]audit.Record, error) {
	if c.Audit == nil {
		return nil, nil
	}
	return c.Audit.RecentAcrossFiles(ctx, limit)
}

var _ Source = CorpusSource{}
