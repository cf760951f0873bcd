// Package cleanup removes stale files from the shared working
// directories on a schedule.
package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// Dir pairs a working directory with its independent retention age.
type Dir struct {
	Path   string
	MaxAge time.Duration
}

// Sweeper deletes entries older than each directory's threshold.
// It runs concurrently with active pipelines; files held by the guard
// are skipped.
type Sweeper struct {
	dirs  []Dir
	guard *Guard
}

func NewSweeper(guard *Guard, dirs ...Dir) *Sweeper {
	return &Sweeper{dirs: dirs, guard: guard}
}

// Sweep walks every configured directory once. Missing directories are
// treated as empty, and a failure to delete one file never stops the
// sweep of the rest.
func (s *Sweeper) Sweep(now time.Time) {
	for _, dir := range s.dirs {
		deleted := s.sweepDir(dir, now)
		if deleted > 0 {
			log.Printf("cleanup: removed %d stale file(s) from %s", deleted, dir.Path)
		}
	}
}

func (s *Sweeper) sweepDir(dir Dir, now time.Time) int {
	entries, err := os.ReadDir(dir.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("cleanup: read %s: %v", dir.Path, err)
		}
		return 0
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir.Path, entry.Name())
		if s.guard != nil && s.guard.Held(path) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Printf("cleanup: stat %s: %v", path, err)
			continue
		}
		if now.Sub(info.ModTime()) <= dir.MaxAge {
			continue
		}

		if err := os.Remove(path); err != nil {
			log.Printf("cleanup: remove %s: %v", path, err)
			continue
		}
		deleted++
	}
	return deleted
}
