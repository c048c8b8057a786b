package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"standin/internal/logging"
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Cache reports on and maintains one proxy storage directory. Only files
// that follow the proxy naming convention are touched; anything else in the
// directory is ignored.
type Cache struct {
	root   string
	logger *slog.Logger
	statfs statfsFunc
}

// NewCache builds a maintenance view over a proxy directory.
func NewCache(root string, logger *slog.Logger) *Cache {
	return &Cache{
		root:   root,
		logger: logging.NewComponentLogger(logger, "cache"),
		statfs: realStatfs,
	}
}

// Root returns the directory this cache manages.
func (c *Cache) Root() string {
	return c.root
}

// Entry describes one proxy file.
type Entry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Hash       string    `json:"hash"`
	Kind       string    `json:"kind"`
	Pending    bool      `json:"pending"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Stats describes current cache usage.
type Stats struct {
	Entries      int     `json:"entries"`
	Pending      int     `json:"pending"`
	TotalBytes   int64   `json:"total_bytes"`
	FreeBytes    uint64  `json:"free_bytes"`
	TotalFSBytes uint64  `json:"total_fs_bytes"`
	FreeRatio    float64 `json:"free_ratio"`
}

// List returns the proxy files in the directory, newest first.
func (c *Cache) List() ([]Entry, error) {
	entries, err := c.scan()
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ModifiedAt.Equal(entries[j].ModifiedAt) {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ModifiedAt.After(entries[j].ModifiedAt)
	})
	return entries, nil
}

// Stats returns current cache usage and filesystem free-space info.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	entries, err := c.scan()
	if err != nil {
		return s, err
	}
	for _, entry := range entries {
		s.Entries++
		s.TotalBytes += entry.SizeBytes
		if entry.Pending {
			s.Pending++
		}
	}
	totalFS, freeFS, err := c.statfs(c.root)
	if err != nil {
		return s, fmt.Errorf("cache: statfs: %w", err)
	}
	s.FreeBytes = freeFS
	s.TotalFSBytes = totalFS
	s.FreeRatio = 1.0
	if totalFS > 0 {
		s.FreeRatio = float64(freeFS) / float64(totalFS)
	}
	if s.Entries == 0 {
		c.logger.InfoContext(ctx, "proxy cache empty", logging.String(logging.FieldDest, c.root))
	}
	return s, nil
}

// CleanStale removes pending files whose last write is older than ttl. An
// encoder that is still running keeps refreshing its output's mtime, so only
// markers abandoned by a crashed or killed job age past the ttl.
func (c *Cache) CleanStale(ctx context.Context, ttl time.Duration) (int, error) {
	entries, err := c.scan()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, entry := range entries {
		if !entry.Pending || entry.ModifiedAt.After(cutoff) {
			continue
		}
		if err := os.Remove(entry.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("cache: remove %q: %w", entry.Path, err)
		}
		removed++
		c.logger.InfoContext(ctx, "removed stale pending marker",
			logging.String(logging.FieldDest, entry.Path),
			logging.String("age", time.Since(entry.ModifiedAt).Round(time.Second).String()))
	}
	return removed, nil
}

// Clear removes every proxy file, finished and pending, from the directory.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	entries, err := c.scan()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if err := os.Remove(entry.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("cache: remove %q: %w", entry.Path, err)
		}
		removed++
	}
	c.logger.InfoContext(ctx, "cleared proxy cache",
		logging.String(logging.FieldDest, c.root),
		logging.Int("removed", removed))
	return removed, nil
}

func (c *Cache) scan() ([]Entry, error) {
	dirEntries, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache: list %q: %w", c.root, err)
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		name := dirEntry.Name()
		hash, kind, pending, ok := parseProxyName(name)
		if !ok {
			continue
		}
		info, err := dirEntry.Info()
		if err != nil {
			c.logger.Warn("skipping unreadable cache entry",
				logging.String(logging.FieldDest, filepath.Join(c.root, name)),
				logging.Error(err))
			continue
		}
		entries = append(entries, Entry{
			Name:       name,
			Path:       filepath.Join(c.root, name),
			Hash:       hash,
			Kind:       kind.String(),
			Pending:    pending,
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	return entries, nil
}

// parseProxyName splits a file name into its proxy identity parts, rejecting
// names that do not follow the hash + extension convention.
func parseProxyName(name string) (hash string, kind Kind, pending bool, ok bool) {
	switch {
	case strings.HasSuffix(name, PendingVideoExtension):
		hash, kind, pending = strings.TrimSuffix(name, PendingVideoExtension), KindVideo, true
	case strings.HasSuffix(name, PendingImageExtension):
		hash, kind, pending = strings.TrimSuffix(name, PendingImageExtension), KindImage, true
	case strings.HasSuffix(name, VideoExtension):
		hash, kind = strings.TrimSuffix(name, VideoExtension), KindVideo
	case strings.HasSuffix(name, ImageExtension):
		hash, kind = strings.TrimSuffix(name, ImageExtension), KindImage
	default:
		return "", 0, false, false
	}
	if hash == "" || !isHex(hash) {
		return "", 0, false, false
	}
	return hash, kind, pending, true
}

func isHex(value string) bool {
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
