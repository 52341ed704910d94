//go:build linux

package engine

import "golang.org/x/sys/unix"

// statFields extracts the short stat and device number from a unix.Stat_t.
//
//nolint:unconvert // field widths differ between linux architectures
func statFields(st *unix.Stat_t) (dev uint64, mode uint32, rdev uint64) {
	return uint64(st.Dev), uint32(st.Mode), uint64(st.Rdev)
}
