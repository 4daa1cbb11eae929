package chat

// Presence maps identified users to their live connection.
// It is owned by a Hub and only touched from the hub's event loop, so it carries no lock.
// A second join by the same user replaces the entry (last join wins).
type Presence struct {
	entries map[string]*Client
}

// NewPresence creates an empty registry.
func NewPresence() *Presence {
	return &Presence{entries: make(map[string]*Client)}
}

// Set records c as the live connection of userID, replacing any previous one.
func (p *Presence) Set(userID string, c *Client) {
	p.entries[userID] = c
}

// Get returns the live connection of userID, if any.
func (p *Presence) Get(userID string) (*Client, bool) {
	c, ok := p.entries[userID]
	return c, ok
}

// Remove drops the entry of userID.
func (p *Presence) Remove(userID string) {
	delete(p.entries, userID)
}

// RemoveIf drops the entry of userID only while it still points at c.
// It reports whether an entry was removed.
func (p *Presence) RemoveIf(userID string, c *Client) bool {
	if current, ok := p.entries[userID]; ok && current == c {
		delete(p.entries, userID)
		return true
	}
	return false
}

// Len returns the number of online users.
func (p *Presence) Len() int {
	return len(p.entries)
}
