package directory

import "sync/atomic"

// Block holds the 256 scores for one /24 prefix. It is allocated lazily,
// the first time a write touches any host in that /24, and lives for the
// lifetime of the context once allocated — deletions zero a slot, they
// never free the block.
//
// The lock and active fields are grouped ahead of the (much larger) scores
// array so that the two fields a writer touches on every call share a
// cache line, separate from whichever score slot is being updated.
type Block struct {
	lock   lockPrimitive
	active atomic.Uint32
	_      [44]byte
	scores [256]atomic.Int32
}

// newBlock allocates a zeroed Block using the given lock primitive
// constructor.
func newBlock(newLock func() lockPrimitive) *Block {
	return &Block{lock: newLock()}
}

// Lock acquires the block's write lock. Get/GetEx never call this; every
// other engine operation that mutates a slot or the active count does.
func (b *Block) Lock() { b.lock.Lock() }

// Unlock releases the block's write lock.
func (b *Block) Unlock() { b.lock.Unlock() }

// ScoreLoad reads the score at host index h. Safe to call without the
// lock held; this is the read-side lock-free path.
func (b *Block) ScoreLoad(h uint8) int32 {
	return b.scores[h].Load()
}

// ScoreStore writes the score at host index h. Callers must hold the
// block's lock.
func (b *Block) ScoreStore(h uint8, v int32) {
	b.scores[h].Store(v)
}

// ActiveLoad reads the block's active (non-zero score) count. Safe without
// the lock: used as a fast pre-check before a decay sweep bothers
// acquiring the lock for an already-empty block.
func (b *Block) ActiveLoad() uint32 {
	return b.active.Load()
}

// ActiveAdd adjusts the active count by delta (1 or -1 in practice) and
// returns the new value. Callers must hold the block's lock.
func (b *Block) ActiveAdd(delta int32) uint32 {
	return b.active.Add(uint32(delta))
}

// ActiveStore resets the active count directly. Used by clear, which
// zeroes every slot in one pass rather than decrementing one at a time.
func (b *Block) ActiveStore(v uint32) {
	b.active.Store(v)
}

// Range calls fn once for every host index 0..255, in order, passing the
// index and its current score. fn's return value is stored back via
// ScoreStore only when changed is true — used by decay, which mutates
// in place, and skipped entirely by Foreach, which is read-only.
func (b *Block) Range(fn func(h uint8, score int32) (newScore int32, changed bool)) {
	for h := 0; h < 256; h++ {
		hh := uint8(h)
		score := b.scores[hh].Load()
		if newScore, changed := fn(hh, score); changed {
			b.scores[hh].Store(newScore)
		}
	}
}
