package locking

import "sync"

// Coordinator maps account ids to their mutex, creating mutexes lazily and
// reusing them for the process lifetime.
type Coordinator struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{locks: make(map[int]*sync.Mutex)}
}

// lockFor returns the unique mutex for id, creating it on first use.
func (c *Coordinator) lockFor(id int) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}

	return l
}

// entry tracks one acquired mutex so Release can skip entries that were never
// acquired or were already released.
type entry struct {
	lock *sync.Mutex
	held bool
}

// LockSet records the locks acquired by one operation, in acquisition order.
type LockSet struct {
	entries []*entry
}

// AcquireSingle locks the mutex for one account id.
func (c *Coordinator) AcquireSingle(id int) *LockSet {
	l := c.lockFor(id)
	l.Lock()

	return &LockSet{entries: []*entry{{lock: l, held: true}}}
}

// AcquirePair locks the mutexes for both ids in ascending id order, regardless
// of argument order. The returned set records the order actually locked.
func (c *Coordinator) AcquirePair(id1, id2 int) *LockSet {
	if id1 == id2 {
		return c.AcquireSingle(id1)
	}

	first, second := id1, id2
	if second < first {
		first, second = second, first
	}

	firstLock := c.lockFor(first)
	secondLock := c.lockFor(second)

	firstLock.Lock()
	secondLock.Lock()

	return &LockSet{entries: []*entry{
		{lock: firstLock, held: true},
		{lock: secondLock, held: true},
	}}
}

// Release unlocks every lock in the set that is still held. Releasing twice,
// or releasing a set containing never-acquired entries, is a no-op for those
// entries. Locks are released in reverse acquisition order.
func (c *Coordinator) Release(set *LockSet) {
	if set == nil {
		return
	}

	for i := len(set.entries) - 1; i >= 0; i-- {
		e := set.entries[i]
		if e.held {
			e.held = false
			e.lock.Unlock()
		}
	}
}

// ReleaseSingle is Release for sets returned by AcquireSingle.
func (c *Coordinator) ReleaseSingle(set *LockSet) {
	c.Release(set)
}
