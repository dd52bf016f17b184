package handle

import "sync"

// Handles are identified across binding boundaries by a registry-issued
// uintptr rather than a raw address, so nothing dereferenceable ever
// leaves the package.
var (
	regMu   sync.RWMutex
	reg     = make(map[uintptr]*Handle)
	nextRaw uintptr = 1
)

func register(h *Handle) uintptr {
	regMu.Lock()
	defer regMu.Unlock()
	id := nextRaw
	nextRaw++
	reg[id] = h
	return id
}

func unregister(id uintptr) {
	regMu.Lock()
	defer regMu.Unlock()
	delete(reg, id)
}

// Lookup resolves a raw handle ID back to its Handle. Returns nil for
// IDs that were never issued or whose handle has been closed.
func Lookup(id uintptr) *Handle {
	regMu.RLock()
	defer regMu.RUnlock()
	return reg[id]
}
