package source

import (
	"sync/atomic"

	"hz.tools/sdr"
)

// ring is a bounded, fixed-buffer-count single-producer single-consumer
// queue of IQ sample blocks. It replaces apollo-tv.c's sdr_rtlsdr.c
// per-slot-mutex handoff (where producer and consumer trade ownership of
// ring slots by holding each other's next mutex) with a pair of buffered
// channels acting as counting semaphores: "free" holds buffers available
// to be filled, "filled" holds buffers ready to be drained. Both
// directions are non-blocking from the producer's perspective, so a slow
// consumer causes samples to be dropped rather than the producer
// blocking -- the same loss-on-overflow behaviour the original provides,
// without holding a mutex across an RTL-SDR callback.
type ring struct {
	free     chan sdr.SamplesC64
	filled   chan sdr.SamplesC64
	overflow uint64
}

func newRing(bufCount, bufLen int) *ring {
	r := &ring{
		free:   make(chan sdr.SamplesC64, bufCount),
		filled: make(chan sdr.SamplesC64, bufCount),
	}
	for i := 0; i < bufCount; i++ {
		r.free <- make(sdr.SamplesC64, bufLen)
	}
	return r
}

// acquire returns a free buffer for the producer to fill, or nil if none
// is available (every slot is either filled-but-undrained or in flight to
// the consumer).
func (r *ring) acquire() sdr.SamplesC64 {
	select {
	case buf := <-r.free:
		return buf
	default:
		return nil
	}
}

// publish hands a filled buffer to the consumer. If the filled queue is
// already full -- the consumer is behind -- the buffer is dropped and
// recycled directly back to free, and the overflow counter is
// incremented, mirroring the original's dropped-buffer diagnostic.
func (r *ring) publish(buf sdr.SamplesC64) {
	select {
	case r.filled <- buf:
	default:
		atomic.AddUint64(&r.overflow, 1)
		r.release(buf)
	}
}

// release returns a drained buffer to the free pool.
func (r *ring) release(buf sdr.SamplesC64) {
	select {
	case r.free <- buf:
	default:
		// Pool is oversubscribed; this should not happen with a fixed
		// bufCount, but drop rather than block if it does.
	}
}

// dropNoBuffer records an overflow when the producer could not even
// acquire a free buffer to fill (every slot is filled or in flight).
func (r *ring) dropNoBuffer() {
	atomic.AddUint64(&r.overflow, 1)
}

// Overflow returns the number of buffers dropped due to the consumer
// falling behind, for metrics.
func (r *ring) Overflow() uint64 {
	return atomic.LoadUint64(&r.overflow)
}
