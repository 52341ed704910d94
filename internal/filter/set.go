package filter

import (
	"slices"
	"sort"
)

// Set is a sorted, duplicate-free set of strings whose elements are consumed
// on the first match. Later lookups of a consumed element miss, which keeps
// the set shrinking while a large tree is walked. A nil *Set is empty.
type Set struct {
	items []string
}

// NewSet builds a Set from items, sorting and de-duplicating them.
func NewSet(items ...string) *Set {
	s := &Set{items: slices.Clone(items)}
	sort.Strings(s.items)
	s.items = slices.Compact(s.items)
	return s
}

// Len returns the number of unconsumed elements.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns a copy of the unconsumed elements in sorted order.
func (s *Set) Items() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.items)
}

// Contains reports whether x is present without consuming it.
func (s *Set) Contains(x string) bool {
	if s == nil {
		return false
	}
	_, found := slices.BinarySearch(s.items, x)
	return found
}

// Take reports whether x is present and removes it if so.
func (s *Set) Take(x string) bool {
	if s == nil || len(s.items) == 0 {
		return false
	}
	i, found := slices.BinarySearch(s.items, x)
	if !found {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}
