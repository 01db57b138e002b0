package attribution

import "sync"

// Keys of the visitor KV.
const (
	KeyReferralCode = "referral_code"
	KeySessionID    = "session_id"
)

// KV is durable per-visitor storage. Values written with Set are visible to later Get
// calls on the same KV and survive across requests of the same visitor.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// MemoryKV is an in-process KV.
type MemoryKV struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: make(map[string]string)}
}

func (kv *MemoryKV) Get(key string) (string, bool) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.m[key]
	return v, ok
}

func (kv *MemoryKV) Set(key, value string) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.m[key] = value
}
