// Package directory implements the two-level block directory over the
// 32-bit IPv4 address space: a /16-indexed row array, each holding a
// /24-indexed block array, plus the striped allocation locks that guard
// first-touch allocation of a row or block.
package directory

import (
	"sync/atomic"

	"github.com/sauronlib/sauron/internal/addr"
	"github.com/sauronlib/sauron/internal/bitmap"
	"github.com/sauronlib/sauron/pkg/options"
)

// BlockRow holds the 256 /24 block pointers under one /16 prefix.
type BlockRow struct {
	Blocks [256]atomic.Pointer[Block]
}

// Directory is the two-level block directory. Rows and blocks are
// allocated lazily on first write; Lookup never allocates.
type Directory struct {
	rows       [65536]atomic.Pointer[BlockRow]
	stripes    *StripePool
	newLock    func() lockPrimitive
	rowCount   atomic.Int64
	blockCount atomic.Int64
}

// New builds an empty Directory configured per opts.LockKind.
func New(opts options.Options) *Directory {
	newLock := newSpinLock
	if opts.LockKind == options.LockKindAdaptiveMutex {
		newLock = newMutexLock
	}
	return &Directory{
		stripes: newStripePool(newLock),
		newLock: newLock,
	}
}

// Lookup returns the block for ip's /24, or nil if no write has ever
// touched it. Lock-free: two atomic loads on the hot path.
func (d *Directory) Lookup(ip uint32) *Block {
	row := d.rows[addr.Prefix16(ip)].Load()
	if row == nil {
		return nil
	}
	return row.Blocks[addr.SubIndex16(ip)].Load()
}

// GetOrAlloc returns the block for ip's /24, allocating the row and/or
// block on first touch. bm's bit for ip's /24 is set when the block is
// allocated, and set again on the fast path if a sweep or clear has
// cleared it since.
func (d *Directory) GetOrAlloc(ip uint32, bm *bitmap.Bitmap) *Block {
	p16 := addr.Prefix16(ip)
	sub := addr.SubIndex16(ip)

	row := d.rows[p16].Load()
	if row == nil {
		row = d.allocRow(p16)
	}

	if b := row.Blocks[sub].Load(); b != nil {
		if !bm.Test(addr.Prefix24(ip)) {
			bm.Set(addr.Prefix24(ip))
		}
		return b
	}
	return d.allocBlock(ip, p16, sub, row, bm)
}

// allocRow allocates the row for p16 under that prefix's stripe lock,
// double-checking after acquiring in case a racing writer already won.
func (d *Directory) allocRow(p16 uint16) *BlockRow {
	stripe := d.stripes.lockFor(p16)
	stripe.Lock()
	defer stripe.Unlock()

	if row := d.rows[p16].Load(); row != nil {
		return row
	}
	row := &BlockRow{}
	d.rows[p16].Store(row)
	d.rowCount.Add(1)
	return row
}

// allocBlock allocates the block for ip's /24 under ip's stripe lock,
// double-checking after acquiring, and sets the bitmap bit the first time
// the block comes into existence.
func (d *Directory) allocBlock(ip uint32, p16 uint16, sub uint8, row *BlockRow, bm *bitmap.Bitmap) *Block {
	stripe := d.stripes.lockFor(p16)
	stripe.Lock()
	defer stripe.Unlock()

	if b := row.Blocks[sub].Load(); b != nil {
		return b
	}

	b := newBlock(d.newLock)
	row.Blocks[sub].Store(b)
	bm.Set(addr.Prefix24(ip))
	d.blockCount.Add(1)
	return b
}

// RowCount returns the number of /16 rows ever allocated.
func (d *Directory) RowCount() int64 {
	return d.rowCount.Load()
}

// BlockCount returns the number of /24 blocks ever allocated.
func (d *Directory) BlockCount() int64 {
	return d.blockCount.Load()
}

// Rows exposes the 65536 row slots for iteration, decay, and clear, which
// must walk present rows/blocks directly rather than through
// Lookup/GetOrAlloc.
func (d *Directory) Rows() *[65536]atomic.Pointer[BlockRow] {
	return &d.rows
}
