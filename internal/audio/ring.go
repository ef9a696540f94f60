// Package audio implements the real-time polyphonic voice engine: a
// lock-free single-producer/single-consumer command ring and a 16-voice
// allocator with the spec's retrigger/steal policy.
package audio

import (
	"sync/atomic"
)

const ringCapacity = 128 // power of two, so index wrap is index & (cap-1)

// CommandRing is the SPSC ring buffer for AudioCommands described in
// §4.4/§9: producers publish with a write-index bump, the audio callback
// drains by advancing a read index, acquire/release ordering on both. When
// AllowMultiProducer is set the write index is advanced with a
// compare-and-swap loop instead of a plain add, for the case where more
// than one goroutine pushes directly without a fan-in thread.
type CommandRing struct {
	buf                [ringCapacity]Command
	readIndex          atomic.Uint64
	writeIndex         atomic.Uint64
	AllowMultiProducer bool
	onDropped          func(Command)
}

// NewCommandRing constructs an empty ring.
func NewCommandRing() *CommandRing {
	return &CommandRing{}
}

// OnDropped sets a callback invoked (from the producer's goroutine) when an
// overflowing command is dropped, so a caller can log it at warn per §4.4.
func (r *CommandRing) OnDropped(fn func(Command)) { r.onDropped = fn }

// Push enqueues a command, returning false if the ring is full. A full
// ring is not an error: the command is dropped and the caller should log
// at warn, never surface it as a failure (§4.4/§7).
func (r *CommandRing) Push(cmd Command) bool {
	if r.AllowMultiProducer {
		for {
			writeIndex := r.writeIndex.Load()
			readIndex := r.readIndex.Load()
			if writeIndex-readIndex >= ringCapacity {
				if r.onDropped != nil {
					r.onDropped(cmd)
				}
				return false
			}
			if r.writeIndex.CompareAndSwap(writeIndex, writeIndex+1) {
				r.buf[writeIndex%ringCapacity] = cmd
				return true
			}
		}
	}

	writeIndex := r.writeIndex.Load()
	readIndex := r.readIndex.Load()
	if writeIndex-readIndex >= ringCapacity {
		if r.onDropped != nil {
			r.onDropped(cmd)
		}
		return false
	}
	r.buf[writeIndex%ringCapacity] = cmd
	r.writeIndex.Store(writeIndex + 1)
	return true
}

// Drain invokes apply for every pending command in enqueue order, then
// advances the read index. Must be called only from the single consumer
// (the audio callback).
func (r *CommandRing) Drain(apply func(Command)) {
	readIndex := r.readIndex.Load()
	writeIndex := r.writeIndex.Load()
	for readIndex < writeIndex {
		apply(r.buf[readIndex%ringCapacity])
		readIndex++
	}
	r.readIndex.Store(readIndex)
}

// Pending reports the number of commands currently queued, for diagnostics.
func (r *CommandRing) Pending() uint64 {
	return r.writeIndex.Load() - r.readIndex.Load()
}
