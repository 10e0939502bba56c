package otp

import (
	"context"
	"sync"
	"time"
)

// Registry tracks the single outstanding one-time code per principal.
//
// Put is an unconditional overwrite: requesting a new code invalidates the
// previous one (last-issued-wins). CheckAndConsume deletes the entry only
// on an exact match, so a code is usable at most once. Implementations must
// make both operations atomic per key.
type Registry interface {
	Put(ctx context.Context, principal, code string) error
	CheckAndConsume(ctx context.Context, principal, candidate string) (bool, error)
}

type memoryEntry struct {
	code     string
	issuedAt time.Time
}

// MemoryRegistry keeps pending codes in process memory. Entries do not
// survive a restart and, unless a TTL is configured, never expire.
type MemoryRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryRegistry builds an in-process registry. ttl of zero disables
// expiry, preserving the historical never-expires behavior.
func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	return &MemoryRegistry{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Put stores code for principal, overwriting any outstanding entry.
func (r *MemoryRegistry) Put(_ context.Context, principal, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[principal] = memoryEntry{code: code, issuedAt: r.now()}
	return nil
}

// CheckAndConsume reports whether candidate matches the outstanding code
// for principal and deletes the entry on a match. A mismatch or a missing
// entry leaves the registry unchanged.
func (r *MemoryRegistry) CheckAndConsume(_ context.Context, principal, candidate string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[principal]
	if !ok {
		return false, nil
	}
	if r.ttl > 0 && r.now().Sub(entry.issuedAt) > r.ttl {
		delete(r.entries, principal)
		return false, nil
	}
	if entry.code != candidate {
		return false, nil
	}
	delete(r.entries, principal)
	return true, nil
}

// Len reports the number of outstanding entries. Exposed for tests.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
