package directory

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// lockPrimitive is the one polymorphic seam in the block-write path: any
// type satisfying Lock/Unlock can guard a block's read-modify-write
// section. sync.Mutex already satisfies it with no wrapper.
type lockPrimitive interface {
	Lock()
	Unlock()
}

// spinBound is how many CAS attempts a spinLock makes before yielding the
// goroutine's timeslice with runtime.Gosched. Without a bound, a spinner
// racing a preempted holder burns its entire quantum for nothing.
const spinBound = 64

// spinLock is a CAS-retry lock over an atomic.Bool. It's the default /24
// block lock: cheaper than a sync.Mutex under the low/no contention that
// dominates this workload (most /24s are touched by one writer at a time),
// at the cost of wasted cycles if a holder is descheduled mid-section.
type spinLock struct {
	held atomic.Bool
}

func (s *spinLock) Lock() {
	spins := 0
	for !s.held.CompareAndSwap(false, true) {
		spins++
		if spins >= spinBound {
			runtime.Gosched()
			spins = 0
		}
	}
}

func (s *spinLock) Unlock() {
	s.held.Store(false)
}

// newSpinLock and newMutexLock are the two lockPrimitive constructors
// selected by the Directory's configured options.LockKind.
func newSpinLock() lockPrimitive { return &spinLock{} }

func newMutexLock() lockPrimitive { return &sync.Mutex{} }
