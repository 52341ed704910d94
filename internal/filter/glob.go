package filter

import (
	"fmt"
	"path/filepath"
)

// Canonical returns the absolute form of path with every symlink in its
// parent directories resolved. The final component is kept as is, so a path
// naming a symlink still names the link and not its target.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path of %s: %w", path, err)
	}
	dir, base := filepath.Split(abs)
	if base == "" {
		return filepath.Clean(abs), nil
	}
	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	return filepath.Join(realDir, base), nil
}

// ExpandGlobs expands shell patterns into canonical paths. Patterns that
// match nothing contribute nothing; matches that vanish before they can be
// canonicalized are dropped. The result is sorted and duplicate-free.
func ExpandGlobs(patterns []string) ([]string, error) {
	var out []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			c, err := Canonical(m)
			if err != nil {
				continue
			}
			out = append(out, c)
		}
	}
	return NewSet(out...).Items(), nil
}
