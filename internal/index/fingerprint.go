package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Fingerprint derives a stable content signature for the file set matching
// pattern. It folds path|size|mtime of every match, in lexicographic path
// order, into a single sha256. Files deleted between glob and stat are
// skipped: freshness detection is best-effort, not a guarantee against
// concurrent corpus mutation.
func Fingerprint(pattern string) (string, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("failed to glob %q: %w", pattern, err)
	}
	sort.Strings(paths)

	hasher := sha256.New()
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		fmt.Fprintf(hasher, "%s|%d|%d", path, info.Size(), info.ModTime().Unix())
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
