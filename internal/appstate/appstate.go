// Package appstate holds the live, in-memory counters the status view (A7)
// polls between ticks. It is deliberately separate from the durable stores:
// losing these counters on restart is harmless, since they are a view over
// work already recorded durably by corpus.Service and the operations log.
package appstate

import (
	"sync/atomic"
)

// Stats tracks corpus-wide activity counters. All fields use atomic
// operations so corpus.Service can update them from the write path while
// the status view reads a Snapshot concurrently without locking.
type Stats struct {
	running atomic.Bool

	filesIndexed    atomic.Int64
	filesDeleted    atomic.Int64
	chunksIndexed   atomic.Int64
	articlesIndexed atomic.Int64
	errors          atomic.Int64

	lastFileID atomic.Value // string
}

// NewStats creates a new, zeroed counter set.
func NewStats() *Stats {
	s := &Stats{}
	s.lastFileID.Store("")
	return s
}

func (s *Stats) SetRunning(running bool) { s.running.Store(running) }
func (s *Stats) IsRunning() bool         { return s.running.Load() }

func (s *Stats) AddFilesIndexed(delta int64)    { s.filesIndexed.Add(delta) }
func (s *Stats) AddFilesDeleted(delta int64)    { s.filesDeleted.Add(delta) }
func (s *Stats) AddChunksIndexed(delta int64)   { s.chunksIndexed.Add(delta) }
func (s *Stats) AddArticlesIndexed(delta int64) { s.articlesIndexed.Add(delta) }
func (s *Stats) AddErrors(delta int64)          { s.errors.Add(delta) }

// SetLastFileID records the file_id of the most recent ingest or delete,
// for display without a round trip to the metadata repository.
func (s *Stats) SetLastFileID(fileID string) {
	s.lastFileID.Store(fileID)
}

// Reset zeroes every counter. The running flag and the last file id are
// left unchanged.
func (s *Stats) Reset() {
	s.filesIndexed.Store(0)
	s.filesDeleted.Store(0)
	s.chunksIndexed.Store(0)
	s.articlesIndexed.Store(0)
	s.errors.Store(0)
}

// Snapshot is a point-in-time, non-atomic copy of Stats for rendering.
type Snapshot struct {
	Running         bool
	FilesIndexed    int64
	FilesDeleted    int64
	ChunksIndexed   int64
	ArticlesIndexed int64
	Errors          int64
	LastFileID      string
}

func (s *Stats) Snapshot() Snapshot {
	lastFileID, _ := s.lastFileID.Load().(string)
	return Snapshot{
		Running:         s.IsRunning(),
		FilesIndexed:    s.filesIndexed.Load(),
		FilesDeleted:    s.filesDeleted.Load(),
		ChunksIndexed:   s.chunksIndexed.Load(),
		ArticlesIndexed: s.articlesIndexed.Load(),
		Errors:          s.errors.Load(),
		LastFileID:      lastFileID,
	}
}
