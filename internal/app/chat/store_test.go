package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campushub/internal/pkg/errs"
)

// clockAt returns a clock that yields the given instants in order.
func clockAt(instants ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := instants[i]
		i++
		return t
	}
}

func TestMemoryStore_CreateAndFetch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.Create(ctx, Draft{SenderID: "u1", ReceiverID: "u2", Body: "  is the bike still available?  ", ProductRef: "p9"})
	require.NoError(t, err)

	msgs, err := store.ListByRoom(ctx, DeriveRoomID("u2", "u1"))
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	got := msgs[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "is the bike still available?", got.Body)
	assert.Equal(t, "u1", got.SenderID)
	assert.Equal(t, "u2", got.ReceiverID)
	assert.Equal(t, "u1_u2", got.RoomID)
	assert.Equal(t, "p9", got.ProductRef)
	assert.False(t, got.Read)
}

func TestMemoryStore_CreateValidation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	cases := []Draft{
		{SenderID: "u1", ReceiverID: "u2", Body: "   "},
		{SenderID: "", ReceiverID: "u2", Body: "hi"},
		{SenderID: "u1", ReceiverID: "", Body: "hi"},
		{SenderID: "u1", ReceiverID: "u1", Body: "hi"},
	}
	for _, d := range cases {
		_, err := store.Create(ctx, d)
		assert.True(t, errors.Is(err, errs.NewError(errs.ErrInvalidParams)), "draft %+v", d)
	}

	_, err := store.Create(ctx, Draft{RoomID: "u1_u3", SenderID: "u1", ReceiverID: "u2", Body: "hi"})
	assert.True(t, errors.Is(err, errs.NewError(errs.ErrInvalidRoom)))

	msgs, err := store.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMemoryStore_ListByRoomOrdersByCreatedAt(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1, t2, t3 := base, base.Add(time.Second), base.Add(2*time.Second)

	store := NewMemoryStore()
	store.Now = clockAt(t3, t1, t2)

	for _, body := range []string{"third", "first", "second"} {
		_, err := store.Create(ctx, Draft{SenderID: "u1", ReceiverID: "u2", Body: body})
		require.NoError(t, err)
	}

	msgs, err := store.ListByRoom(ctx, "u1_u2")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{msgs[0].Body, msgs[1].Body, msgs[2].Body})

	forUser, err := store.ListForUser(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "third", forUser[0].Body)
}

func TestMemoryStore_ListByRoomEmpty(t *testing.T) {
	msgs, err := NewMemoryStore().ListByRoom(context.Background(), "nobody_here")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMemoryStore_MarkReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for range 3 {
		_, err := store.Create(ctx, Draft{SenderID: "u1", ReceiverID: "u2", Body: "ping"})
		require.NoError(t, err)
	}
	_, err := store.Create(ctx, Draft{SenderID: "u2", ReceiverID: "u1", Body: "pong"})
	require.NoError(t, err)

	n, err := store.CountUnread(ctx, "u1_u2", "u2")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for range 2 {
		require.NoError(t, store.MarkRead(ctx, "u1_u2", "u2"))
		n, err = store.CountUnread(ctx, "u1_u2", "u2")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	}

	n, err = store.CountUnread(ctx, "u1_u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "messages addressed to the other party stay unread")
}

func TestMemoryStore_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().Create(ctx, Draft{SenderID: "u1", ReceiverID: "u2", Body: "hi"})
	assert.ErrorIs(t, err, context.Canceled)
}
