package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadPatterns reads exclude patterns from a file, one per line.
// Format:
//   - pattern  → exclude
//     pattern  → exclude (no prefix)
//   # comment  → skip
//   blank line → skip
//
// Include rules ("+ pattern") have no meaning for a clone and are rejected.
func LoadPatterns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pattern file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "+ ") {
			return nil, fmt.Errorf("pattern file %s line %d: include rules are not supported", path, lineNum)
		}
		pattern := strings.TrimSpace(strings.TrimPrefix(line, "- "))
		if pattern == "" {
			return nil, fmt.Errorf("pattern file %s line %d: empty pattern", path, lineNum)
		}
		patterns = append(patterns, pattern)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pattern file %s: %w", path, err)
	}
	return patterns, nil
}
