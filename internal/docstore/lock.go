package docstore

import "sync"

// pathLocks hands out one mutex per path so writes to the same document
// queue FIFO while writes to different documents run in parallel. Advisory
// and in-process only; it gives no cross-process guarantee.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*pathLock)}
}

// acquire blocks until the caller holds the lock for path.
func (p *pathLocks) acquire(path string) *pathLock {
	p.mu.Lock()
	l, ok := p.locks[path]
	if !ok {
		l = &pathLock{}
		p.locks[path] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return l
}

// release unlocks path and drops the lock entry once no writer is waiting,
// so the map does not grow with every path ever written.
func (p *pathLocks) release(path string, l *pathLock) {
	l.mu.Unlock()

	p.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(p.locks, path)
	}
	p.mu.Unlock()
}

// withLock runs fn while holding the per-path lock. The lock is released on
// all exit paths, including fn failures.
func (p *pathLocks) withLock(path string, fn func() error) error {
	l := p.acquire(path)
	defer p.release(path, l)
	return fn()
}
