package sauron

import (
	"unsafe"

	"github.com/sauronlib/sauron/internal/directory"
)

// sizeofBlockRow and sizeofBlock are the fixed per-allocation costs
// MemoryUsage sums over every row and block the directory has allocated.
var (
	sizeofBlockRow = int64(unsafe.Sizeof(directory.BlockRow{}))
	sizeofBlock    = int64(unsafe.Sizeof(directory.Block{}))
)
