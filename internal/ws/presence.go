package ws

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Presence maps a user id to the set of its live connection ids. A user is
// online iff it has at least one connection; removing the last connection
// removes the user entirely.
type Presence struct {
	mu    sync.RWMutex
	conns map[string]map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{
		conns: make(map[string]map[string]struct{}),
	}
}

// Add registers connID under userID and reports whether this is the user's
// first live connection.
func (p *Presence) Add(userID, connID string) (first bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		p.conns[userID] = set
	}
	set[connID] = struct{}{}
	return !ok
}

// Remove deletes connID from userID's set and reports whether the user went
// offline. Removing an unknown mapping is a no-op.
func (p *Presence) Remove(userID, connID string) (last bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(p.conns, userID)
		return true
	}
	return false
}

// Conns returns a snapshot of userID's connection ids.
func (p *Presence) Conns(userID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return lo.Keys(p.conns[userID])
}

// Online returns a sorted snapshot of all online user ids.
func (p *Presence) Online() []string {
	p.mu.RLock()
	users := lo.Keys(p.conns)
	p.mu.RUnlock()

	sort.Strings(users)
	return users
}
