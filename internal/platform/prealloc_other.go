//go:build !linux

package platform

import "os"

// Preallocate is a no-op outside Linux.
func Preallocate(_ *os.File, _ int64) {}
