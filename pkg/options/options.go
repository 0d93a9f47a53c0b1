// Package options provides functional-option configuration for a Context:
// which write-lock primitive /24 blocks use, whether the bitmap should
// request transparent-huge-page backing from the OS, the archive writer's
// batching size, and the service name attached to the context's logger.
package options

import "strings"

// LockKind selects the write-lock primitive /24 blocks use — the only
// polymorphic seam on the block write path.
type LockKind int

const (
	// LockKindSpin is a CAS-retry spinlock. Default: cheapest under low
	// contention and on bare-metal hosts where the holder is never
	// preempted mid-critical-section.
	LockKindSpin LockKind = iota

	// LockKindAdaptiveMutex is a plain sync.Mutex. Use on virtualized
	// hosts where holding a spinlock while the vCPU is descheduled would
	// waste the entire preemption quantum spinning.
	LockKindAdaptiveMutex
)

// Options holds the configuration parameters for a Context.
type Options struct {
	// Service tags the context's structured logger (e.g. "sauron").
	Service string `json:"service"`

	// LockKind selects the /24 block write-lock primitive.
	LockKind LockKind `json:"lockKind"`

	// HugePageHint requests transparent-huge-page backing for the 2 MiB
	// bitmap region via madvise(MADV_HUGEPAGE) on platforms that support
	// it. Purely a performance hint: never required for correctness,
	// silently ignored where unsupported.
	HugePageHint bool `json:"hugePageHint"`

	// ArchiveBatchSize is how many entries the archive writer buffers
	// before flushing to the underlying file.
	ArchiveBatchSize int `json:"archiveBatchSize"`
}

// Option is a function that modifies the Context's configuration.
type Option func(*Options)

// WithService sets the service name attached to the context's logger.
func WithService(service string) Option {
	return func(o *Options) {
		service = strings.TrimSpace(service)
		if service != "" {
			o.Service = service
		}
	}
}

// WithAdaptiveMutex selects a plain sync.Mutex instead of the default
// spinlock for /24 block writes.
func WithAdaptiveMutex() Option {
	return func(o *Options) {
		o.LockKind = LockKindAdaptiveMutex
	}
}

// WithHugePages enables the bitmap's huge-page allocation hint.
func WithHugePages() Option {
	return func(o *Options) {
		o.HugePageHint = true
	}
}

// WithArchiveBatchSize overrides the archive writer's batching size.
// Values below 1 are ignored.
func WithArchiveBatchSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.ArchiveBatchSize = n
		}
	}
}
