package relay

import "sync"

// MessageKey identifies a single channel message.
type MessageKey struct {
	ChatID    int64
	MessageID int
}

// ClaimRegistry tracks which offer messages have been claimed. A claim is
// permanent for the life of the process; only the refuse flow releases a key
// to make an offer claimable again.
type ClaimRegistry struct {
	mu     sync.Mutex
	closed map[MessageKey]struct{}
}

func NewClaimRegistry() *ClaimRegistry {
	return &ClaimRegistry{closed: make(map[MessageKey]struct{})}
}

// TryClaim inserts key if absent. Exactly one caller per key observes true,
// no matter how many press the button concurrently.
func (r *ClaimRegistry) TryClaim(key MessageKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.closed[key]; ok {
		return false
	}
	r.closed[key] = struct{}{}
	return true
}

// Release removes the key so the offer can be claimed again. No-op if absent.
func (r *ClaimRegistry) Release(key MessageKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.closed, key)
}

// OwnershipRegistry maps a claim reply message to the member who owns it.
// Deliver and refuse actions on that message are gated on this identity.
type OwnershipRegistry struct {
	mu     sync.Mutex
	owners map[MessageKey]int64
}

func NewOwnershipRegistry() *OwnershipRegistry {
	return &OwnershipRegistry{owners: make(map[MessageKey]int64)}
}

func (r *OwnershipRegistry) Record(key MessageKey, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[key] = userID
}

// Authorize reports whether key has a recorded owner equal to userID.
func (r *OwnershipRegistry) Authorize(key MessageKey, userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[key]
	return ok && owner == userID
}

func (r *OwnershipRegistry) Release(key MessageKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.owners, key)
}
