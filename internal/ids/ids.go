// Package ids allocates particle and hit barcodes.
//
// Production runs use Shuffled so barcodes carry no ordering information;
// tests use Sequential for reproducible expectations.
package ids

import (
	"math/rand"
	"sync"
)

// Allocator hands out blocks of unique, positive identifiers.
// Implementations must be safe for concurrent use.
type Allocator interface {
	// Allocate returns n identifiers never returned before by this allocator.
	Allocate(n int) []int64
}

// Sequential allocates consecutive identifiers in ascending order.
type Sequential struct {
	mu   sync.Mutex
	next int64
}

// NewSequential returns an allocator whose first identifier is start.
// Values below 1 start at 1.
func NewSequential(start int64) *Sequential {
	if start < 1 {
		start = 1
	}
	return &Sequential{next: start}
}

func (s *Sequential) Allocate(n int) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return take(&s.next, n)
}

// Shuffled allocates the same consecutive ranges as Sequential but returns
// each block in random order.
type Shuffled struct {
	mu   sync.Mutex
	next int64
	rng  *rand.Rand
}

// NewShuffled returns an allocator starting at start and permuting each
// block with rng. A nil rng is seeded from the global source.
func NewShuffled(start int64, rng *rand.Rand) *Shuffled {
	if start < 1 {
		start = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Shuffled{next: start, rng: rng}
}

func (s *Shuffled) Allocate(n int) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := take(&s.next, n)
	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func take(next *int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = *next + int64(i)
	}
	*next += int64(n)
	return out
}
