// Package engine implements the operations core: get/set/increment/
// decrement/delete, batch increment, clear, and lock-free iteration,
// expressed over the bitmap filter and block directory.
package engine

import (
	"math"
	"sync/atomic"

	"github.com/sauronlib/sauron/internal/addr"
	"github.com/sauronlib/sauron/internal/bitmap"
	"github.com/sauronlib/sauron/internal/directory"
	"go.uber.org/zap"
)

const (
	scoreMin = -32767
	scoreMax = 32767
)

// Engine is the operations core over one bitmap and one block directory.
// It holds no state of its own beyond the aggregate score counter; the
// bitmap and directory remain the source of truth.
type Engine struct {
	dir        *directory.Directory
	bm         *bitmap.Bitmap
	scoreCount atomic.Int64
	log        *zap.SugaredLogger
}

// New builds an Engine over the given bitmap and directory.
func New(dir *directory.Directory, bm *bitmap.Bitmap, log *zap.SugaredLogger) *Engine {
	return &Engine{dir: dir, bm: bm, log: log}
}

// satAdd clamps a+b to [-32767, 32767], performing the addition in int32
// so the clamp happens before any truncation back to int16.
func satAdd(a, b int32) int32 {
	sum := a + b
	if sum > scoreMax {
		return scoreMax
	}
	if sum < scoreMin {
		return scoreMin
	}
	return sum
}

// Get returns the score for ip, or 0 if absent. It never blocks and never
// allocates.
func (e *Engine) Get(ip uint32) int16 {
	if !e.bm.Test(addr.Prefix24(ip)) {
		return 0
	}
	b := e.dir.Lookup(ip)
	if b == nil {
		return 0
	}
	return int16(b.ScoreLoad(addr.HostIndex(ip)))
}

// GetEx is like Get but distinguishes absent (or stored-zero) from
// present-and-nonzero via its second return value.
func (e *Engine) GetEx(ip uint32) (int16, bool) {
	if !e.bm.Test(addr.Prefix24(ip)) {
		return 0, false
	}
	b := e.dir.Lookup(ip)
	if b == nil {
		return 0, false
	}
	s := b.ScoreLoad(addr.HostIndex(ip))
	if s == 0 {
		return 0, false
	}
	return int16(s), true
}

// Set stores score at ip and returns the previous value.
func (e *Engine) Set(ip uint32, score int16) int16 {
	b := e.dir.GetOrAlloc(ip, e.bm)
	h := addr.HostIndex(ip)

	b.Lock()
	old := b.ScoreLoad(h)
	b.ScoreStore(h, int32(score))
	e.adjustCounts(b, old, int32(score))
	b.Unlock()

	return int16(old)
}

// Increment applies a saturating delta to ip's score and returns the new
// value. delta == 0 is a pure read, handled without allocating or locking.
func (e *Engine) Increment(ip uint32, delta int16) int16 {
	if delta == 0 {
		return e.Get(ip)
	}

	b := e.dir.GetOrAlloc(ip, e.bm)
	h := addr.HostIndex(ip)

	b.Lock()
	old := b.ScoreLoad(h)
	newV := satAdd(old, int32(delta))
	b.ScoreStore(h, newV)
	e.adjustCounts(b, old, newV)
	b.Unlock()

	return int16(newV)
}

// Decrement applies a saturating negative delta. It is increment(-delta)
// except for delta == math.MinInt16 (-32768), which has no representable
// negation in int16; that case maps to the maximum possible decrement,
// equivalent to incrementing by +32767.
func (e *Engine) Decrement(ip uint32, delta int16) int16 {
	if delta == math.MinInt16 {
		return e.Increment(ip, scoreMax)
	}
	return e.Increment(ip, -delta)
}

// Delete zeroes ip's score if present. Returns true whether or not a
// non-zero value was actually cleared; deleting an absent key always
// succeeds.
func (e *Engine) Delete(ip uint32) bool {
	b := e.dir.Lookup(ip)
	if b == nil {
		return true
	}
	h := addr.HostIndex(ip)

	b.Lock()
	old := b.ScoreLoad(h)
	if old != 0 {
		b.ScoreStore(h, 0)
		e.adjustCounts(b, old, 0)
	}
	b.Unlock()

	return true
}

// BatchIncrement applies Increment for each (ip, delta) pair in lockstep,
// up to the shorter of the two slices. Not atomic across keys; returns the
// number of pairs applied.
func (e *Engine) BatchIncrement(ips []uint32, deltas []int16) int {
	n := len(ips)
	if len(deltas) < n {
		n = len(deltas)
	}
	for i := 0; i < n; i++ {
		e.Increment(ips[i], deltas[i])
	}
	return n
}

// Clear zeroes every slot in every allocated block, resets every active
// count, clears every bitmap bit, and resets the aggregate score count.
// Directory rows and blocks remain allocated.
func (e *Engine) Clear() {
	rows := e.dir.Rows()
	for p16 := 0; p16 < 65536; p16++ {
		row := rows[p16].Load()
		if row == nil {
			continue
		}
		for sub := 0; sub < 256; sub++ {
			b := row.Blocks[sub].Load()
			if b == nil {
				continue
			}

			b.Lock()
			b.Range(func(_ uint8, score int32) (int32, bool) {
				if score == 0 {
					return 0, false
				}
				return 0, true
			})
			b.ActiveStore(0)
			b.Unlock()

			e.bm.Clear(uint32(p16)<<8 | uint32(sub))
		}
	}
	e.scoreCount.Store(0)
}

// Foreach visits every non-zero slot in ascending IP order, invoking fn
// with (ip, score). It stops early when fn returns true. Returns the
// number of calls made, including a stopping call. Lock-free: every slot
// is read with a single atomic load. Not reentrant — a callback must not
// call back into the same engine.
func (e *Engine) Foreach(fn func(ip uint32, score int16) bool) int64 {
	var count int64
	rows := e.dir.Rows()
	for p16 := 0; p16 < 65536; p16++ {
		row := rows[p16].Load()
		if row == nil {
			continue
		}
		for sub := 0; sub < 256; sub++ {
			b := row.Blocks[sub].Load()
			if b == nil {
				continue
			}
			for h := 0; h < 256; h++ {
				s := b.ScoreLoad(uint8(h))
				if s == 0 {
					continue
				}
				count++
				ip := addr.Join(uint16(p16), uint8(sub), uint8(h))
				if fn(ip, int16(s)) {
					return count
				}
			}
		}
	}
	return count
}

// ScoreCount returns the aggregate total of non-zero scores across every
// block.
func (e *Engine) ScoreCount() int64 {
	return e.scoreCount.Load()
}

// AdjustScoreCount adds delta to the aggregate score count. Exposed for
// decay, which mutates blocks directly rather than through
// Get/Set/Increment and so must maintain the aggregate itself.
func (e *Engine) AdjustScoreCount(delta int64) {
	e.scoreCount.Add(delta)
}

// ResetScoreCount zeroes the aggregate score count. Clear resets the
// count on its own, so archive load (which goes through Clear) does not
// call this.
func (e *Engine) ResetScoreCount() {
	e.scoreCount.Store(0)
}

// Directory exposes the underlying block directory for decay, which must
// walk it directly.
func (e *Engine) Directory() *directory.Directory {
	return e.dir
}

// Bitmap exposes the underlying bitmap for decay.
func (e *Engine) Bitmap() *bitmap.Bitmap {
	return e.bm
}

// Log exposes the engine's structured logger to the maintenance
// operations layered on top of it (decay, bulk load, archive), which log
// their own summaries rather than routing through the engine itself.
func (e *Engine) Log() *zap.SugaredLogger {
	return e.log
}

// adjustCounts updates the block's active count and the engine's
// aggregate score count when old -> newScore crosses a zero boundary.
// Callers must hold the block's lock.
func (e *Engine) adjustCounts(b *directory.Block, old, newScore int32) {
	switch {
	case old == 0 && newScore != 0:
		b.ActiveAdd(1)
		e.scoreCount.Add(1)
	case old != 0 && newScore == 0:
		b.ActiveAdd(-1)
		e.scoreCount.Add(-1)
	}
}
