package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresence_LastJoinWins(t *testing.T) {
	p := NewPresence()
	first, second := &Client{}, &Client{}

	p.Set("u1", first)
	p.Set("u1", second)

	got, ok := p.Get("u1")
	assert.True(t, ok)
	assert.Same(t, second, got)

	assert.False(t, p.RemoveIf("u1", first), "stale connection must not evict the newer one")
	assert.Equal(t, 1, p.Len())

	assert.True(t, p.RemoveIf("u1", second))
	_, ok = p.Get("u1")
	assert.False(t, ok)

	p.Set("u2", first)
	p.Remove("u2")
	assert.Equal(t, 0, p.Len())
}

func TestMembership_JoinIsIdempotent(t *testing.T) {
	m := NewMembership()
	a, b := &Client{}, &Client{}

	assert.True(t, m.Join(a, "u1_u2"))
	assert.False(t, m.Join(a, "u1_u2"))
	assert.True(t, m.Join(b, "u1_u2"))
	assert.True(t, m.Join(a, "u1_u3"))

	assert.ElementsMatch(t, []*Client{a, b}, m.Members("u1_u2"))
	assert.ElementsMatch(t, []string{"u1_u2", "u1_u3"}, m.Rooms(a))
	assert.True(t, m.IsMember(b, "u1_u2"))
	assert.False(t, m.IsMember(b, "u1_u3"))
}

func TestMembership_LeaveAll(t *testing.T) {
	m := NewMembership()
	a, b := &Client{}, &Client{}
	m.Join(a, "u1_u2")
	m.Join(a, "u1_u3")
	m.Join(b, "u1_u2")

	m.LeaveAll(a)

	assert.Empty(t, m.Rooms(a))
	assert.Equal(t, []*Client{b}, m.Members("u1_u2"))
	assert.Empty(t, m.Members("u1_u3"))
	assert.NotContains(t, m.rooms, "u1_u3")
}
