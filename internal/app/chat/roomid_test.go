package chat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"campushub/internal/pkg/errs"
)

func TestDeriveRoomID_OrderIndependent(t *testing.T) {
	assert.Equal(t, "u1_u2", DeriveRoomID("u1", "u2"))
	assert.Equal(t, "u1_u2", DeriveRoomID("u2", "u1"))

	pairs := [][2]string{
		{"65f1a2", "65f0ff"},
		{"b", "a"},
		{"550e8400-e29b-41d4-a716-446655440000", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
	}
	for _, p := range pairs {
		assert.Equal(t, DeriveRoomID(p[0], p[1]), DeriveRoomID(p[1], p[0]))
	}
}

func TestDeriveRoomID_DistinctPartners(t *testing.T) {
	assert.NotEqual(t, DeriveRoomID("u1", "u2"), DeriveRoomID("u1", "u3"))
	assert.NotEqual(t, DeriveRoomID("u1", "u2"), DeriveRoomID("u2", "u3"))
}

func TestValidatePair(t *testing.T) {
	assert.NoError(t, ValidatePair("u1", "u2"))

	for _, p := range [][2]string{{"", "u2"}, {"u1", ""}, {"u1", "u1"}, {"a_b", "c"}} {
		err := ValidatePair(p[0], p[1])
		assert.True(t, errors.Is(err, errs.NewError(errs.ErrInvalidParams)), "pair %v", p)
	}
}

func TestRoomIncludes(t *testing.T) {
	room := DeriveRoomID("u2", "u1")

	assert.True(t, RoomIncludes(room, "u1"))
	assert.True(t, RoomIncludes(room, "u2"))
	assert.False(t, RoomIncludes(room, "u3"))
	assert.False(t, RoomIncludes(room, ""))
	assert.False(t, RoomIncludes("lobby", "lobby"))
}
