// Package articlestore implements the article embedding store (C3): a
// persistent mapping article_id -> vector[D], grounded in the source's
// ArticleEmbeddingStore (NPZ whole-archive read-modify-write under a
// single lock) and, for the archive format itself, on archive/zip. No
// third-party npz/npy writer is available, so the compressed archive is
// implemented directly on archive/zip: one deflate-compressed member per
// article id, holding its raw little-endian float32 vector.
package articlestore

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store is the exclusive-lock-protected article embedding archive. All
// mutating operations perform a whole-archive read-modify-write and
// atomic replace; reads load the archive fresh per call.
type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// loadAll reads the whole archive fresh. An unparseable archive is not
// reported as an ordinary read error: it is backed up with a
// `.corrupt.<unix-ts>` suffix and treated as an empty archive, the same
// recovery every other durable store in the module performs on load.
func (s *Store) loadAll() (map[string][]float32, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]float32{}, nil
		}
		return nil, fmt.Errorf("read article embeddings: %w", err)
	}

	out, parseErr := parseArchive(data)
	if parseErr != nil {
		if backupErr := s.backupCorrupt(); backupErr != nil {
			return nil, backupErr
		}
		return map[string][]float32{}, nil
	}
	return out, nil
}

func parseArchive(data []byte) (map[string][]float32, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	out := make(map[string][]float32, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("article embedding %q: truncated vector", f.Name)
		}
		vec := make([]float32, len(raw)/4)
		if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, vec); err != nil {
			return nil, err
		}
		out[f.Name] = vec
	}
	return out, nil
}

func (s *Store) backupCorrupt() error {
	bak := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, bak); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("backup corrupt article embeddings: %w", err)
	}
	return nil
}

// Load validates the archive at path, backing it up and resetting it to
// empty if it is unparseable. Every read and write operation already
// loads the archive fresh per call via loadAll and recovers from
// corruption the same way, so Load exists to surface that recovery once
// at startup instead of silently on the first access.
func (s *Store) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	_, err := s.loadAll()
	return err
}

func (s *Store) saveAll(data map[string][]float32) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for id, vec := range data {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: id, Method: zip.Deflate})
		if err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create article embeddings dir: %w", err)
	}
	tmp := s.path + ".tmp.npz"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write temp article embeddings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename article embeddings: %w", err)
	}
	return nil
}

func (s *Store) Get(articleID string) ([]float32, bool) {
	data, err := s.loadAll()
	if err != nil {
		return nil, false
	}
	v, ok := data[articleID]
	return v, ok
}

func (s *Store) GetBatch(articleIDs []string) map[string][]float32 {
	data, err := s.loadAll()
	if err != nil {
		return map[string][]float32{}
	}
	out := make(map[string][]float32, len(articleIDs))
	for _, id := range articleIDs {
		if v, ok := data[id]; ok {
			out[id] = v
		}
	}
	return out
}

func (s *Store) Save(articleID string, vector []float32) error {
	return s.SaveBatch(map[string][]float32{articleID: vector})
}

func (s *Store) SaveBatch(items map[string][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadAll()
	if err != nil {
		return err
	}
	for id, vec := range items {
		cp := make([]float32, len(vec))
		copy(cp, vec)
		data[id] = cp
	}
	return s.saveAll(data)
}

func (s *Store) Delete(articleID string) error {
	return s.DeleteBatch([]string{articleID})
}

func (s *Store) DeleteBatch(articleIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.loadAll()
	if err != nil {
		return err
	}
	for _, id := range articleIDs {
		delete(data, id)
	}
	return s.saveAll(data)
}

func (s *Store) Exists(articleID string) bool {
	_, ok := s.Get(articleID)
	return ok
}

func (s *Store) Count() int {
	data, err := s.loadAll()
	if err != nil {
		return 0
	}
	return len(data)
}
