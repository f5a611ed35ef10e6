package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kashacker/satellite-tracker-orbitx/internal/cache"
)

// SnapshotCache keeps merged catalog snapshots as JSON files on disk.
type SnapshotCache struct {
	dir      string
	maxFiles int
}

// NewSnapshotCache creates a SnapshotCache that stores files in dir and keeps
// at most maxFiles.
func NewSnapshotCache(dir string, maxFiles int) *SnapshotCache {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &SnapshotCache{
		dir:      dir,
		maxFiles: maxFiles,
	}
}

// Write saves snap to a file named after its fetch time and prunes old files
// beyond maxFiles.
func (c *SnapshotCache) Write(snap cache.Entry[[]Entry]) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	name := fmt.Sprintf("catalog_%d.json", snap.FetchedAtUnixMillis)
	tmp := filepath.Join(c.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot file: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(c.dir, name)); err != nil {
		return fmt.Errorf("renaming snapshot file: %w", err)
	}

	return c.prune()
}

// LoadLatest reads the newest snapshot by the timestamp in its filename.
func (c *SnapshotCache) LoadLatest() (cache.Entry[[]Entry], error) {
	files, err := c.listFiles()
	if err != nil {
		return cache.Entry[[]Entry]{}, err
	}
	if len(files) == 0 {
		return cache.Entry[[]Entry]{}, fmt.Errorf("no snapshot files in %s", c.dir)
	}

	// Files are sorted oldest first; take the last one.
	latest := files[len(files)-1]
	data, err := os.ReadFile(filepath.Join(c.dir, latest.name))
	if err != nil {
		return cache.Entry[[]Entry]{}, fmt.Errorf("reading snapshot file: %w", err)
	}

	var snap cache.Entry[[]Entry]
	if err := json.Unmarshal(data, &snap); err != nil {
		return cache.Entry[[]Entry]{}, fmt.Errorf("decoding snapshot %s: %w", latest.name, err)
	}
	return snap, nil
}

type snapshotFile struct {
	name string
	ts   time.Time
}

func (c *SnapshotCache) listFiles() ([]snapshotFile, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing snapshot dir: %w", err)
	}

	var files []snapshotFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "catalog_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		msStr := strings.TrimSuffix(strings.TrimPrefix(name, "catalog_"), ".json")
		ms, err := strconv.ParseInt(msStr, 10, 64)
		if err != nil {
			continue
		}
		files = append(files, snapshotFile{name: name, ts: time.UnixMilli(ms)})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ts.Before(files[j].ts)
	})
	return files, nil
}

func (c *SnapshotCache) prune() error {
	files, err := c.listFiles()
	if err != nil {
		return err
	}
	if len(files) <= c.maxFiles {
		return nil
	}

	for _, f := range files[:len(files)-c.maxFiles] {
		if err := os.Remove(filepath.Join(c.dir, f.name)); err != nil {
			return fmt.Errorf("pruning snapshot file %s: %w", f.name, err)
		}
	}
	return nil
}
