package mesh

import (
	gomath "math"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/Faultbox/meshnorm/pkg/math"
)

// parallelGrain is the block size work is split into; small enough to
// balance, large enough to amortize scheduling.
const parallelGrain = 1024

var numWorkers = runtime.GOMAXPROCS(0)

// SetWorkers overrides the worker count used by parallel passes. n <= 0
// restores the default (GOMAXPROCS). Not safe to call while a computation
// is in flight.
func SetWorkers(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	numWorkers = n
}

// parallelRange runs fn over [0,n) in blocks of parallelGrain across the
// worker pool. Small ranges run inline on the calling goroutine.
func parallelRange(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := numWorkers
	if n <= parallelGrain || workers <= 1 {
		fn(0, n)
		return
	}

	blocks := (n + parallelGrain - 1) / parallelGrain
	if workers > blocks {
		workers = blocks
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				b := int(next.Add(1)) - 1
				if b >= blocks {
					return
				}
				start := b * parallelGrain
				end := start + parallelGrain
				if end > n {
					end = n
				}
				fn(start, end)
			}
		}()
	}
	wg.Wait()
}

// addFloat32Atomic adds inc to *addr with a compare-and-swap retry loop over
// the float's bit pattern. No lost updates under contention.
func addFloat32Atomic(addr *float32, inc float32) {
	ptr := (*uint32)(unsafe.Pointer(addr))
	for {
		old := atomic.LoadUint32(ptr)
		nw := gomath.Float32bits(gomath.Float32frombits(old) + inc)
		if atomic.CompareAndSwapUint32(ptr, old, nw) {
			return
		}
	}
}

// addVec3Atomic atomically accumulates delta into slot, one component at a
// time. Component sums are exact regardless of interleaving; readers must
// wait for the accumulation pass to finish before trusting whole vectors.
func addVec3Atomic(slot *math.Vec3, delta math.Vec3) {
	addFloat32Atomic(&slot.X, delta.X)
	addFloat32Atomic(&slot.Y, delta.Y)
	addFloat32Atomic(&slot.Z, delta.Z)
}
