package process

import (
	"path/filepath"
	"strings"
	"time"

	"verdict/internal/fsys"
	"verdict/pkg/logging"
)

// StaleAfter is the age beyond which a leftover invocation directory is
// considered abandoned.
const StaleAfter = time.Hour

// CleanupStaleTempDirs removes invocation directories under dir that are
// older than maxAge. They are left behind only when a run is killed before
// its deferred cleanup runs. The function is best-effort: failures are
// logged, and the number of removed directories is returned.
func CleanupStaleTempDirs(fs fsys.FS, dir string, maxAge time.Duration, now time.Time) int {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		logging.Debug("ProcessRunner", "Could not list %s for stale directories: %v", dir, err)
		return 0
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), TempDirPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := fs.RemoveAll(path); err != nil {
			logging.Debug("ProcessRunner", "Could not remove stale directory %s: %v", path, err)
			continue
		}
		removed++
		logging.Debug("ProcessRunner", "Removed stale directory %s", path)
	}

	if removed > 0 {
		logging.Info("ProcessRunner", "Cleaned up %d stale temporary directories in %s", removed, dir)
	}
	return removed
}
