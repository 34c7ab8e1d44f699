package kmerdb

import "sync"

// Synchronizer guards a container's namespace metadata. Creating a group,
// partition or collection checks whether the node exists and creates it if
// not; two goroutines doing that for the same path must hold the same
// Synchronizer across both steps.
//
// Appending to and flushing an existing collection take no lock: each
// collection must have exactly one writing goroutine for its lifetime. This
// is not checked at run time.
type Synchronizer struct {
	mu sync.Mutex
}

var _ sync.Locker = (*Synchronizer)(nil)

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

func (s *Synchronizer) Lock()   { s.mu.Lock() }
func (s *Synchronizer) Unlock() { s.mu.Unlock() }

// TryLock is sync.Mutex.TryLock; tests use it to observe that the lock is
// released.
func (s *Synchronizer) TryLock() bool { return s.mu.TryLock() }
