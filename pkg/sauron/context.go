// Package sauron is the public operation surface of the scoring store: a
// process-resident Context owning one bitmap, one block directory, and
// the aggregate counters over them, plus the bulk-load, decay, and
// archive operations layered on top.
package sauron

import (
	"sync/atomic"

	"github.com/sauronlib/sauron/internal/archive"
	"github.com/sauronlib/sauron/internal/bitmap"
	"github.com/sauronlib/sauron/internal/decay"
	"github.com/sauronlib/sauron/internal/directory"
	"github.com/sauronlib/sauron/internal/engine"
	"github.com/sauronlib/sauron/internal/loader"
	"github.com/sauronlib/sauron/pkg/errors"
	"github.com/sauronlib/sauron/pkg/ipaddr"
	"github.com/sauronlib/sauron/pkg/logger"
	"github.com/sauronlib/sauron/pkg/options"
	"go.uber.org/zap"
)

// Context is the scoring store. It is created explicitly with New and
// destroyed explicitly with Close; between those calls every other entity
// in this module lives only inside it. A zero-value Context is not valid;
// always construct one through New.
type Context struct {
	closed    atomic.Bool
	log       *zap.SugaredLogger
	engine    *engine.Engine
	bm        *bitmap.Bitmap
	dir       *directory.Directory
	batchSize int
}

// New allocates a fresh Context: its bitmap, block directory, and
// operations core. The only failure mode is allocation failure, which in
// Go surfaces as a runtime out-of-memory rather than a returned error —
// New itself never returns a non-nil error today, but keeps the error
// return so a future allocation strategy that can fail gracefully (e.g. a
// size-capped arena) doesn't need a signature change.
func New(opts ...options.Option) (*Context, error) {
	o := options.Apply(opts...)
	log := logger.New(o.Service)

	bm := bitmap.New(o.HugePageHint)
	dir := directory.New(o)
	eng := engine.New(dir, bm, log)

	return &Context{log: log, engine: eng, bm: bm, dir: dir, batchSize: o.ArchiveBatchSize}, nil
}

// Close releases the context's resources. It is nil-safe and idempotent;
// calling Close more than once, or on a nil *Context, is a no-op.
func (c *Context) Close() error {
	if c == nil {
		return nil
	}
	c.closed.Store(true)
	return nil
}

func (c *Context) isUsable() bool {
	return c != nil && !c.closed.Load()
}

// Get returns ip's score, or 0 if absent or if c is nil/closed.
func (c *Context) Get(ip uint32) int16 {
	if !c.isUsable() {
		return 0
	}
	return c.engine.Get(ip)
}

// GetByString is Get over a dotted-decimal address; an unparseable string
// returns 0, indistinguishable from a present stored-zero score.
func (c *Context) GetByString(s string) int16 {
	ip, ok := ipaddr.ParseV4(s)
	if !ok {
		return 0
	}
	return c.Get(ip)
}

// GetEx distinguishes absent (or stored-zero) from present-and-nonzero,
// for callers that can't tolerate Get's ambiguity.
func (c *Context) GetEx(ip uint32) (int16, bool) {
	if !c.isUsable() {
		return 0, false
	}
	return c.engine.GetEx(ip)
}

// Set stores score at ip and returns the previous value. A nil/closed
// context returns 0 and has no effect.
func (c *Context) Set(ip uint32, score int16) int16 {
	if !c.isUsable() {
		return 0
	}
	return c.engine.Set(ip, score)
}

// SetByString is Set over a dotted-decimal address. An unparseable string
// returns 0 with no effect, the same return an IP whose previous score was
// 0 would produce — callers that need to tell these apart must validate
// the string themselves first.
func (c *Context) SetByString(s string, score int16) int16 {
	ip, ok := ipaddr.ParseV4(s)
	if !ok {
		return 0
	}
	return c.Set(ip, score)
}

// Increment applies a saturating delta to ip's score and returns the new
// value.
func (c *Context) Increment(ip uint32, delta int16) int16 {
	if !c.isUsable() {
		return 0
	}
	return c.engine.Increment(ip, delta)
}

// IncrementByString is Increment over a dotted-decimal address.
func (c *Context) IncrementByString(s string, delta int16) int16 {
	ip, ok := ipaddr.ParseV4(s)
	if !ok {
		return 0
	}
	return c.Increment(ip, delta)
}

// Decrement applies a saturating negative delta to ip's score.
func (c *Context) Decrement(ip uint32, delta int16) int16 {
	if !c.isUsable() {
		return 0
	}
	return c.engine.Decrement(ip, delta)
}

// DecrementByString is Decrement over a dotted-decimal address.
func (c *Context) DecrementByString(s string, delta int16) int16 {
	ip, ok := ipaddr.ParseV4(s)
	if !ok {
		return 0
	}
	return c.Decrement(ip, delta)
}

// Delete zeroes ip's score if present. Returns errors.OK whether or not
// the key was present: deleting an absent key is not a failure. A nil or
// closed context returns errors.ErrNullArgument.
func (c *Context) Delete(ip uint32) errors.Code {
	if !c.isUsable() {
		return errors.ErrNullArgument
	}
	c.engine.Delete(ip)
	return errors.OK
}

// DeleteByString is Delete over a dotted-decimal address.
func (c *Context) DeleteByString(s string) errors.Code {
	ip, ok := ipaddr.ParseV4(s)
	if !ok {
		return errors.ErrInvalidArgument
	}
	return c.Delete(ip)
}

// BatchIncrement applies Increment to each (ip, delta) pair in lockstep,
// up to the shorter slice length. Not atomic across keys.
func (c *Context) BatchIncrement(ips []uint32, deltas []int16) int {
	if !c.isUsable() {
		return 0
	}
	return c.engine.BatchIncrement(ips, deltas)
}

// Clear zeroes every score, every active count, and every bitmap bit.
// Directory rows and blocks remain allocated.
func (c *Context) Clear() errors.Code {
	if !c.isUsable() {
		return errors.ErrNullArgument
	}
	c.engine.Clear()
	return errors.OK
}

// Foreach visits every non-zero score in ascending IP order. See
// engine.Engine.Foreach for the exact contract, including non-reentrancy.
func (c *Context) Foreach(fn func(ip uint32, score int16) bool) int64 {
	if !c.isUsable() {
		return 0
	}
	return c.engine.Foreach(fn)
}

// Decay multiplies every non-zero score by factor and zeroes anything
// left within deadzone of zero. factor must be in [0.0, 1.0].
func (c *Context) Decay(factor float64, deadzone int16) (int64, error) {
	if !c.isUsable() {
		return 0, errors.NewNullArgumentError("context")
	}
	return decay.Sweep(c.engine, factor, deadzone)
}

// BulkLoad ingests a CSV file at path into the store.
func (c *Context) BulkLoad(path string) (loader.Result, error) {
	if !c.isUsable() {
		return loader.Result{}, errors.NewNullArgumentError("context")
	}
	return loader.LoadFile(c.engine, path)
}

// BulkLoadBuffer ingests an in-memory CSV buffer into the store.
func (c *Context) BulkLoadBuffer(buf []byte) (loader.Result, error) {
	if !c.isUsable() {
		return loader.Result{}, errors.NewNullArgumentError("context")
	}
	return loader.LoadBuffer(c.engine, buf)
}

// Save writes the store to path via the atomic-rename archive protocol.
func (c *Context) Save(path string) error {
	if !c.isUsable() {
		return errors.NewNullArgumentError("context")
	}
	return archive.Save(c.engine, path, c.batchSize)
}

// Load replaces the store's contents with the archive at path. A missing
// file or an invalid header leaves the store unchanged; a short read in
// the entry stream leaves the store cleared.
func (c *Context) Load(path string) error {
	if !c.isUsable() {
		return errors.NewNullArgumentError("context")
	}
	return archive.Load(c.engine, path, c.batchSize)
}

// Count returns the total number of non-zero scores across the store.
func (c *Context) Count() int64 {
	if !c.isUsable() {
		return 0
	}
	return c.engine.ScoreCount()
}

// BlockCount returns the total number of /24 blocks ever allocated.
func (c *Context) BlockCount() int64 {
	if !c.isUsable() {
		return 0
	}
	return c.dir.BlockCount()
}

// MemoryUsage returns the store's accounted memory footprint in bytes:
// the bitmap's fixed size plus every allocated directory row and block.
func (c *Context) MemoryUsage() int64 {
	if !c.isUsable() {
		return 0
	}
	rowBytes := c.dir.RowCount() * sizeofBlockRow
	blockBytes := c.dir.BlockCount() * sizeofBlock
	return c.bm.SizeBytes() + rowBytes + blockBytes
}
