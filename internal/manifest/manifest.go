// Package manifest records a BLAKE3 digest for every regular file written to
// a snapshot, in the "<hex>  <path>" layout of b3sum, so a snapshot can be
// checked later with standard tools.
package manifest

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// Entry is one manifest line.
type Entry struct {
	Path   string
	Digest string
	Size   int64
}

// Manifest accumulates entries in memory. It is owned by a single run.
type Manifest struct {
	entries []Entry
}

// New returns an empty manifest.
func New() *Manifest { return &Manifest{} }

// Add records data under relPath. A nil manifest ignores the call.
func (m *Manifest) Add(relPath string, data []byte) {
	if m == nil {
		return
	}
	m.entries = append(m.entries, Entry{Path: relPath, Digest: Digest(data), Size: int64(len(data))})
}

// Entries returns the recorded entries sorted by path.
func (m *Manifest) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Totals returns the number of entries and the bytes they cover.
func (m *Manifest) Totals() (files int, size int64) {
	if m == nil {
		return 0, 0
	}
	for _, e := range m.entries {
		size += e.Size
	}
	return len(m.entries), size
}

// WriteTo writes the manifest sorted by path.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, e := range m.Entries() {
		n, err := fmt.Fprintf(bw, "%s  %s\n", e.Digest, e.Path)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

// WriteFile writes the manifest to path.
func (m *Manifest) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	if _, err := m.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return f.Close()
}

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verify re-hashes every entry below root and returns the paths whose
// content no longer matches.
func Verify(r io.Reader, root string) ([]string, error) {
	var mismatched []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		digest, rel, ok := strings.Cut(scanner.Text(), "  ")
		if !ok {
			return nil, fmt.Errorf("malformed manifest line %q", scanner.Text())
		}
		got, err := hashFile(root + string(os.PathSeparator) + rel)
		if err != nil || got != digest {
			mismatched = append(mismatched, rel)
		}
	}
	return mismatched, scanner.Err()
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
