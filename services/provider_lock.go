package services

import "sync"

// Writes to one provider's credentialing state must serialize: two concurrent
// phase completions must not both observe "prerequisite satisfied". Locks are
// process-local; the record version column backstops multi-instance deploys.
var (
	providerLocksMu sync.Mutex
	providerLocks   = make(map[int]*sync.Mutex)
)

// LockProvider acquires the mutex for a provider id and returns the unlock
// function. Cross-provider operations never contend.
func LockProvider(providerID int) func() {
	providerLocksMu.Lock()
	lock, ok := providerLocks[providerID]
	if !ok {
		lock = &sync.Mutex{}
		providerLocks[providerID] = lock
	}
	providerLocksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}
