package chat

import "github.com/samber/lo"

// Membership tracks which connections receive the broadcasts of which rooms.
// Like Presence it belongs to one Hub and is only used from its event loop.
type Membership struct {
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]map[string]struct{}
}

// NewMembership creates an empty membership table.
func NewMembership() *Membership {
	return &Membership{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]map[string]struct{}),
	}
}

// Join subscribes c to roomID. Joining twice is a no-op; the result reports whether c was added.
func (m *Membership) Join(c *Client, roomID string) bool {
	members, ok := m.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		m.rooms[roomID] = members
	}
	if _, already := members[c]; already {
		return false
	}
	members[c] = struct{}{}

	joined, ok := m.clients[c]
	if !ok {
		joined = make(map[string]struct{})
		m.clients[c] = joined
	}
	joined[roomID] = struct{}{}

	return true
}

// IsMember reports whether c is subscribed to roomID.
func (m *Membership) IsMember(c *Client, roomID string) bool {
	_, ok := m.rooms[roomID][c]
	return ok
}

// Members returns the connections subscribed to roomID.
func (m *Membership) Members(roomID string) []*Client {
	return lo.Keys(m.rooms[roomID])
}

// Rooms returns the rooms c is subscribed to.
func (m *Membership) Rooms(c *Client) []string {
	return lo.Keys(m.clients[c])
}

// LeaveAll drops every subscription of c and forgets empty rooms.
func (m *Membership) LeaveAll(c *Client) {
	for roomID := range m.clients[c] {
		members := m.rooms[roomID]
		delete(members, c)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
	delete(m.clients, c)
}
