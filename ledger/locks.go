package ledger

import "sync"

// lockTable hands out one mutex per string key. Used to serialize
// check-then-append sequences per inventory partition (guard.go) and
// re-folds per vendor (balance.go). Entries are never removed; the key
// space (cuts, vendors) is small and bounded in practice.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for key and returns its unlock func.
func (t *lockTable) acquire(key string) func() {
	t.mu.Lock()
	l, ok := t.locks[key]
	if !ok {
		l = &sync.Mutex{}
		t.locks[key] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
