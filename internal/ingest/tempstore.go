package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// ErrStorage wraps temp file I/O failures; ingestion must not proceed past it.
var ErrStorage = errors.New("temp storage failed")

// TempStore writes uploaded blobs into a private scratch directory and keeps
// a per-session registry of written paths so they can be purged, either when
// a session clears its files or when the process shuts down.
type TempStore struct {
	dir string

	mu    sync.Mutex
	paths map[uint][]string
}

func NewTempStore() (*TempStore, error) {
	dir, err := os.MkdirTemp("", "bizadvisor-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create scratch dir: %v", ErrStorage, err)
	}
	return &TempStore{
		dir:   dir,
		paths: make(map[uint][]string),
	}, nil
}

// Store writes the upload under a collision-resistant name derived from the
// original filename and registers the path for later cleanup.
func (t *TempStore) Store(sessionID uint, filename string, r io.Reader) (string, error) {
	sum := md5.Sum([]byte(filename))
	name := hex.EncodeToString(sum[:]) + filepath.Ext(filename)
	path := filepath.Join(t.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrStorage, path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: write %s: %v", ErrStorage, path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: close %s: %v", ErrStorage, path, err)
	}

	t.mu.Lock()
	t.paths[sessionID] = append(t.paths[sessionID], path)
	t.mu.Unlock()

	return path, nil
}

// PurgeSession removes every file registered for the session. Already-missing
// files are tolerated. Safe to call repeatedly.
func (t *TempStore) PurgeSession(sessionID uint) {
	t.mu.Lock()
	paths := t.paths[sessionID]
	delete(t.paths, sessionID)
	t.mu.Unlock()

	removeAll(paths)
}

// PurgeAll empties the whole registry; used at shutdown.
func (t *TempStore) PurgeAll() {
	t.mu.Lock()
	var all []string
	for _, paths := range t.paths {
		all = append(all, paths...)
	}
	t.paths = make(map[uint][]string)
	t.mu.Unlock()

	removeAll(all)
}

// Close purges everything and removes the scratch directory itself.
func (t *TempStore) Close() {
	t.PurgeAll()
	if err := os.Remove(t.dir); err != nil && !os.IsNotExist(err) {
		log.Printf("remove scratch dir failed: %v", err)
	}
}

func removeAll(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			log.Printf("remove temp file %s failed: %v", path, err)
			continue
		}
		log.Printf("temp file removed: %s", path)
	}
}
