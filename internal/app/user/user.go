/*
Package user contains the chat server's view of marketplace users.

Users are owned by the authentication service; the chat core only references them by id
and looks up display information through a Directory when it populates messages.
*/
package user

import "context"

// User represents the display identity of a chat participant.
type User struct {
	// ID is the unique identifier issued by the authentication service.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Avatar is the avatar URL, may be empty.
	Avatar string `json:"avatar,omitempty"`
}

// Directory resolves user ids to display identities.
// Lookup returns an entry for every id it knows about; unknown ids are simply absent.
type Directory interface {
	Lookup(ctx context.Context, ids ...string) (map[string]User, error)
}

// Resolve returns the directory entry for id, or a bare User carrying only the id.
func Resolve(found map[string]User, id string) User {
	if u, ok := found[id]; ok {
		return u
	}
	return User{ID: id}
}

// StaticDirectory is an in-memory Directory, used in development and tests.
// It is fixed at construction.
type StaticDirectory struct {
	users map[string]User
}

// NewStaticDirectory creates a StaticDirectory seeded with the given users.
func NewStaticDirectory(users ...User) *StaticDirectory {
	d := &StaticDirectory{users: make(map[string]User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// Lookup implements Directory.
func (d *StaticDirectory) Lookup(_ context.Context, ids ...string) (map[string]User, error) {
	found := make(map[string]User, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			found[id] = u
		}
	}
	return found, nil
}
