package comm

import "sync"

// barrier is a reusable rendezvous for a fixed number of ranks. Once broken
// every current and future Wait returns ErrAborted.
type barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	count      int
	generation int
	broken     bool
}

func newBarrier(parties int) *barrier {
	b := &barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *barrier) Wait() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.broken {
		return ErrAborted
	}
	gen := b.generation
	b.count++
	if b.count == b.parties {
		b.count = 0
		b.generation++
		b.cond.Broadcast()
		return nil
	}
	for gen == b.generation && !b.broken {
		b.cond.Wait()
	}
	if gen != b.generation {
		return nil
	}
	return ErrAborted
}

func (b *barrier) Break() {
	b.mu.Lock()
	b.broken = true
	b.cond.Broadcast()
	b.mu.Unlock()
}
