package runtime

import (
	"chat-relay/domain"
	"sync"

	"github.com/samber/lo"
)

type presenceEntry struct {
	username    string
	connections map[ConnectionID]*Connection
}

// Presence maps a user to its live connections and display name.
// The reactor is its only writer; the lock lets observers such as the heartbeat read counts.
type Presence struct {
	mu      sync.RWMutex
	entries map[domain.UserID]*presenceEntry
	order   []domain.UserID // first attachment order of online users
}

func NewPresence() *Presence {
	return &Presence{entries: make(map[domain.UserID]*presenceEntry)}
}

// Attach registers conn for its user. It returns true when this is the user's
// first live connection, i.e. when presence changed.
func (p *Presence) Attach(conn *Connection, username string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[conn.UserID]
	if !ok {
		entry = &presenceEntry{username: username, connections: make(map[ConnectionID]*Connection)}
		p.entries[conn.UserID] = entry
		p.order = append(p.order, conn.UserID)
	}
	entry.connections[conn.ID] = conn
	return !ok
}

// Detach removes conn. It returns true when the user has no connection left and was evicted.
func (p *Presence) Detach(conn *Connection) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[conn.UserID]
	if !ok {
		return false
	}
	if _, ok := entry.connections[conn.ID]; !ok {
		return false
	}
	delete(entry.connections, conn.ID)
	if len(entry.connections) > 0 {
		return false
	}
	delete(p.entries, conn.UserID)
	p.order = lo.Without(p.order, conn.UserID)
	return true
}

// Has reports whether conn is still attached.
func (p *Presence) Has(conn *Connection) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[conn.UserID]
	if !ok {
		return false
	}
	_, ok = entry.connections[conn.ID]
	return ok
}

func (p *Presence) IsOnline(id domain.UserID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.entries[id]
	return ok
}

// DisplayNameOf returns the name of an online user.
func (p *Presence) DisplayNameOf(id domain.UserID) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[id]
	if !ok {
		return "", false
	}
	return entry.username, true
}

// Rename changes the name shown for every live connection of the user.
// It returns the previous name, or false if the user is offline.
func (p *Presence) Rename(id domain.UserID, newUsername string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[id]
	if !ok {
		return "", false
	}
	old := entry.username
	entry.username = newUsername
	return old, true
}

// Snapshot lists online users in order of first attachment.
func (p *Presence) Snapshot() []domain.ActiveUser {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return lo.Map(p.order, func(id domain.UserID, _ int) domain.ActiveUser {
		return domain.ActiveUser{ID: id, Username: p.entries[id].username}
	})
}

func (p *Presence) Connections(id domain.UserID) []*Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[id]
	if !ok {
		return nil
	}
	return lo.Values(entry.connections)
}

func (p *Presence) All() []*Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var all []*Connection
	for _, id := range p.order {
		all = append(all, lo.Values(p.entries[id].connections)...)
	}
	return all
}

// Counts returns the number of online users and live connections.
func (p *Presence) Counts() (users int, connections int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, entry := range p.entries {
		connections += len(entry.connections)
	}
	return len(p.entries), connections
}
