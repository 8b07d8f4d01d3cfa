// Package collective coordinates a fixed-size group of goroutines with
// broadcast, scatter and gather operations. Every member must call the
// same sequence of collectives with the same root; each call blocks
// until the whole group arrives.
package collective

import "sync"

// barrier is a reusable cyclic barrier. The last goroutine to arrive
// opens the current generation and resets the count for the next one.
type barrier struct {
	mu      sync.Mutex
	size    int
	arrived int
	release chan struct{}
}

func newBarrier(size int) *barrier {
	return &barrier{size: size, release: make(chan struct{})}
}

func (b *barrier) await() {
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.size {
		release := b.release
		b.arrived = 0
		b.release = make(chan struct{})
		b.mu.Unlock()
		close(release)
		return
	}
	release := b.release
	b.mu.Unlock()
	<-release
}

// Group is the shared state of one worker group. Collectives run in two
// phases separated by barriers: writers fill the shared cells, everyone
// synchronizes, readers take their values, and a final barrier keeps a
// fast member from starting the next collective while others still read.
type Group struct {
	size    int
	barrier *barrier
	cell    any
	slots   []any
}

// New creates a group for size members, identified by ranks 0..size-1.
func New(size int) *Group {
	if size < 1 {
		panic("collective: group size must be at least 1")
	}
	return &Group{
		size:    size,
		barrier: newBarrier(size),
		slots:   make([]any, size),
	}
}

// Size returns the number of members in the group.
func (g *Group) Size() int { return g.size }

// Broadcast delivers the root's value to every member. The generic
// collectives are package functions because methods cannot carry their
// own type parameters.
func Broadcast[T any](g *Group, rank, root int, v T) T {
	if rank == root {
		g.cell = v
	}
	g.barrier.await()
	out := g.cell.(T)
	g.barrier.await()
	return out
}

// Scatter hands chunk i of the root's chunks to the member with rank i.
// Only the root's chunks argument is consulted; members past the end of
// it receive a nil slice.
func Scatter[T any](g *Group, rank, root int, chunks [][]T) []T {
	if rank == root {
		for i := 0; i < g.size; i++ {
			if i < len(chunks) {
				g.slots[i] = chunks[i]
			} else {
				g.slots[i] = []T(nil)
			}
		}
	}
	g.barrier.await()
	out := g.slots[rank].([]T)
	g.barrier.await()
	return out
}

// Gather collects every member's local slice at the root, ordered by
// rank. All other members receive nil.
func Gather[T any](g *Group, rank, root int, local []T) [][]T {
	g.slots[rank] = local
	g.barrier.await()
	var out [][]T
	if rank == root {
		out = make([][]T, g.size)
		for i, slot := range g.slots {
			out[i] = slot.([]T)
		}
	}
	g.barrier.await()
	return out
}
