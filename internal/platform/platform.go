// Package platform holds the OS-facing pieces of a clone: capped reads of
// pseudo-files, destination preallocation and errno classification.
package platform
