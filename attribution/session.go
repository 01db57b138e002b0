package attribution

import "github.com/google/uuid"

// SessionID returns the visitor's session id, minting a random UUID on first use.
// The same KV always yields the same id.
func SessionID(kv KV) string {
	if id, ok := kv.Get(KeySessionID); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	kv.Set(KeySessionID, id)
	return id
}
