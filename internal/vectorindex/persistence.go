package vectorindex

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// fileMagic identifies the raw vector file format: magic, dim, count,
// followed by count*dim little-endian float32 values. A raw dense vector
// store compatible with flat IP search, not an actual libfaiss file (no
// faiss binding is available, so the wire format is our own, written with
// write-tmp + atomic rename either way).
const fileMagic = "RCIX"

// Save persists the index to path using write-tmp + atomic rename.
func (idx *FlatIndex) Save(path string) error {
	idx.mu.RLock()
	dim := idx.dim
	vectors := idx.vectors
	idx.mu.RUnlock()

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}

	writeErr := func() error {
		if _, err := f.WriteString(fileMagic); err != nil {
			return err
		}
		if err := binary.Write(f, binary.LittleEndian, uint32(dim)); err != nil {
			return err
		}
		if err := binary.Write(f, binary.LittleEndian, uint64(len(vectors))); err != nil {
			return err
		}
		for _, row := range vectors {
			if err := binary.Write(f, binary.LittleEndian, row); err != nil {
				return err
			}
		}
		return nil
	}()
	closeErr := f.Close()
	if writeErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("write index: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp index file: %w", closeErr)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename index file: %w", err)
	}
	return nil
}

// Load restores the index from path. If the file is missing, the index
// stays empty. If the file is unparseable (wrong magic, truncated), the
// corrupt file is backed up with a `.corrupt.<unix-ts>` suffix and the
// in-memory vectors are left as they were (empty for a freshly created
// index). Load then returns nil, as for a missing file, and nothing is
// logged.
func (idx *FlatIndex) Load(path string) (err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		if os.IsNotExist(openErr) {
			return nil
		}
		return fmt.Errorf("open index file: %w", openErr)
	}
	defer f.Close()

	dim, vectors, parseErr := readIndexFile(f)
	if parseErr != nil {
		f.Close()
		return backupCorrupt(path)
	}
	if dim != idx.dim {
		f.Close()
		return backupCorrupt(path)
	}

	idx.mu.Lock()
	idx.vectors = vectors
	idx.mu.Unlock()
	return nil
}

func readIndexFile(r io.Reader) (dim int, vectors [][]float32, err error) {
	magic := make([]byte, len(fileMagic))
	if _, err = io.ReadFull(r, magic); err != nil {
		return 0, nil, err
	}
	if string(magic) != fileMagic {
		return 0, nil, fmt.Errorf("bad magic")
	}
	var d uint32
	if err = binary.Read(r, binary.LittleEndian, &d); err != nil {
		return 0, nil, err
	}
	var n uint64
	if err = binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, nil, err
	}
	vectors = make([][]float32, n)
	for i := range vectors {
		row := make([]float32, d)
		if err = binary.Read(r, binary.LittleEndian, row); err != nil {
			return 0, nil, err
		}
		vectors[i] = row
	}
	return int(d), vectors, nil
}

// backupCorrupt renames path to path.corrupt.<unix-ts> so the service can
// start fresh without losing the evidence of the corruption.
func backupCorrupt(path string) error {
	bak := fmt.Sprintf("%s.corrupt.%d", path, time.Now().Unix())
	if err := os.Rename(path, bak); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("backup corrupt index: %w", err)
	}
	return nil
}
