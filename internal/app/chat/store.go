package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"campushub/internal/pkg/randx"
)

// MessageStore persists chat messages.
type MessageStore interface {
	// Create validates and stores a new unread message.
	Create(ctx context.Context, d Draft) (Message, error)

	// ListByRoom returns the messages of a room, oldest first. Unknown rooms yield an empty slice.
	ListByRoom(ctx context.Context, roomID string) ([]Message, error)

	// MarkRead flags every unread message of roomID addressed to receiverID as read.
	MarkRead(ctx context.Context, roomID, receiverID string) error

	// CountUnread counts the unread messages of roomID addressed to receiverID.
	CountUnread(ctx context.Context, roomID, receiverID string) (int, error)

	// ListForUser returns every message the user sent or received, newest first.
	ListForUser(ctx context.Context, userID string) ([]Message, error)
}

// MemoryStore is a MessageStore kept in process memory.
// It backs development runs without DATABASE_URL and the package tests.
type MemoryStore struct {
	mu       sync.RWMutex
	messages []storedMessage
	seq      uint64

	// Now supplies creation timestamps; defaults to time.Now.
	Now func() time.Time
}

type storedMessage struct {
	Message
	seq uint64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Now: time.Now}
}

// Create implements MessageStore.
func (s *MemoryStore) Create(ctx context.Context, d Draft) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}

	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	msg := Message{
		ID:            randx.MessageID(),
		RoomID:        d.RoomID,
		SenderID:      d.SenderID,
		ReceiverID:    d.ReceiverID,
		Body:          d.Body,
		ProductRef:    d.ProductRef,
		AttachmentKey: d.AttachmentKey,
		CreatedAt:     s.Now().UTC(),
	}
	s.messages = append(s.messages, storedMessage{Message: msg, seq: s.seq})

	return msg, nil
}

// ListByRoom implements MessageStore.
func (s *MemoryStore) ListByRoom(ctx context.Context, roomID string) ([]Message, error) {
	return s.list(ctx, func(m Message) bool { return m.RoomID == roomID }, false)
}

// ListForUser implements MessageStore.
func (s *MemoryStore) ListForUser(ctx context.Context, userID string) ([]Message, error) {
	return s.list(ctx, func(m Message) bool {
		return m.SenderID == userID || m.ReceiverID == userID
	}, true)
}

// MarkRead implements MessageStore.
func (s *MemoryStore) MarkRead(ctx context.Context, roomID, receiverID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		m := &s.messages[i]
		if m.RoomID == roomID && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
		}
	}
	return nil
}

// CountUnread implements MessageStore.
func (s *MemoryStore) CountUnread(ctx context.Context, roomID, receiverID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.messages {
		if m.RoomID == roomID && m.ReceiverID == receiverID && !m.Read {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) list(ctx context.Context, keep func(Message) bool, newestFirst bool) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := make([]storedMessage, 0)
	for _, m := range s.messages {
		if keep(m.Message) {
			matched = append(matched, m)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if newestFirst {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.seq < b.seq
	})

	out := make([]Message, len(matched))
	for i, m := range matched {
		out[i] = m.Message
	}
	return out, nil
}
