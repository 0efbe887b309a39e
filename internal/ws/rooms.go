package ws

import (
	"sync"

	"github.com/samber/lo"
)

// Rooms tracks which connections are actively viewing each chat. Membership
// is connection-scoped: the same user viewing a chat from two devices
// contributes two independent entries.
type Rooms struct {
	mu      sync.RWMutex
	viewers map[string]map[string]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		viewers: make(map[string]map[string]struct{}),
	}
}

// Join adds connID to chatID's viewer set.
func (r *Rooms) Join(chatID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.viewers[chatID] == nil {
		r.viewers[chatID] = make(map[string]struct{})
	}
	r.viewers[chatID][connID] = struct{}{}
}

// Leave removes connID from chatID's viewer set; no-op if absent.
func (r *Rooms) Leave(chatID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.viewers[chatID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.viewers, chatID)
		}
	}
}

// Viewers returns a snapshot of the connection ids viewing chatID.
func (r *Rooms) Viewers(chatID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.viewers[chatID])
}
