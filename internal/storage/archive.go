package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Archiver pushes local files into object storage under a fixed key
// prefix, one object per file.
type Archiver struct {
	store  ObjectStorage
	prefix string
}

func NewArchiver(store ObjectStorage, prefix string) *Archiver {
	return &Archiver{store: store, prefix: prefix}
}

// ArchiveFiles uploads the given local files under prefix/basename and
// returns the object keys written. Stops on the first failed upload.
func (a *Archiver) ArchiveFiles(ctx context.Context, paths []string) ([]string, error) {
	var keys []string
	for _, p := range paths {
		key := a.key(filepath.Base(p))
		if err := a.store.UploadFile(ctx, key, p); err != nil {
			return keys, fmt.Errorf("archive %s: %w", p, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ArchiveDir uploads every regular file directly inside dir.
func (a *Archiver) ArchiveDir(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read archive dir %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return a.ArchiveFiles(ctx, paths)
}

func (a *Archiver) key(name string) string {
	if a.prefix == "" {
		return name
	}
	return a.prefix + "/" + name
}
