//go:build darwin

package engine

import "golang.org/x/sys/unix"

// statFields extracts the short stat and device number from a unix.Stat_t.
func statFields(st *unix.Stat_t) (dev uint64, mode uint32, rdev uint64) {
	return uint64(uint32(st.Dev)), uint32(st.Mode), uint64(uint32(st.Rdev)) //nolint:gosec // G115: dev_t is 32 bits on darwin
}
