package services

import "sync"

// keyedLocks is a registry of named mutexes: one lock per RFQ UUID, per
// (article, DA) pair or per supplier code. Locks are created on first use and
// never removed; the key space is bounded by the business data.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	return l
}

// Lock blocks until the lock for key is held.
func (k *keyedLocks) Lock(key string) *sync.Mutex {
	l := k.get(key)
	l.Lock()
	return l
}

// TryLock acquires the lock for key without blocking. The escalation scan
// uses this so it never stalls an inbound response handler: a contended RFQ
// is simply skipped and picked up on the next tick.
func (k *keyedLocks) TryLock(key string) (*sync.Mutex, bool) {
	l := k.get(key)
	if l.TryLock() {
		return l, true
	}
	return nil, false
}
