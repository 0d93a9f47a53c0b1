//go:build linux

package bitmap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// newHugeBacking maps the bitmap's backing array anonymously and hints the
// kernel to back it with transparent huge pages. Returns nil on any
// failure so the caller falls back to a plain make([]uint64, words).
func newHugeBacking() []uint64 {
	size := words * 8
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		return nil
	}

	// madvise is a hint only; an error here doesn't invalidate the mapping.
	_ = unix.Madvise(buf, unix.MADV_HUGEPAGE)

	return unsafe.Slice((*uint64)(unsafe.Pointer(&buf[0])), words)
}
