package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"campushub/internal/app/chat"
	"campushub/internal/pkg/errs"
	"campushub/internal/pkg/randx"
)

const messageColumns = `id::text AS id, room_id, sender_id, receiver_id, body, is_read, product_ref, attachment_key, created_at`

const insertMessage = `
INSERT INTO messages (id, room_id, sender_id, receiver_id, body, product_ref, attachment_key)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at`

const listRoomMessages = `
SELECT ` + messageColumns + `
FROM messages
WHERE room_id = $1
ORDER BY created_at, seq`

const listUserMessages = `
SELECT ` + messageColumns + `
FROM messages
WHERE sender_id = $1 OR receiver_id = $1
ORDER BY created_at DESC, seq DESC`

const markRoomRead = `
UPDATE messages
SET is_read = TRUE
WHERE room_id = $1 AND receiver_id = $2 AND NOT is_read`

const countRoomUnread = `
SELECT count(*)
FROM messages
WHERE room_id = $1 AND receiver_id = $2 AND NOT is_read`

type messageRow struct {
	ID            string    `db:"id"`
	RoomID        string    `db:"room_id"`
	SenderID      string    `db:"sender_id"`
	ReceiverID    string    `db:"receiver_id"`
	Body          string    `db:"body"`
	Read          bool      `db:"is_read"`
	ProductRef    string    `db:"product_ref"`
	AttachmentKey string    `db:"attachment_key"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r messageRow) message() chat.Message {
	return chat.Message{
		ID:            r.ID,
		RoomID:        r.RoomID,
		SenderID:      r.SenderID,
		ReceiverID:    r.ReceiverID,
		Body:          r.Body,
		Read:          r.Read,
		ProductRef:    r.ProductRef,
		AttachmentKey: r.AttachmentKey,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

// MessageStore is the PostgreSQL chat.MessageStore.
type MessageStore struct {
	q Querier
}

var _ chat.MessageStore = (*MessageStore)(nil)

// NewMessageStore creates a MessageStore over q, usually a *pgxpool.Pool.
func NewMessageStore(q Querier) *MessageStore {
	return &MessageStore{q: q}
}

// Create implements chat.MessageStore. Participants unknown to the users table
// are reported as invalid parameters, a duplicate message id as a persistence failure.
func (s *MessageStore) Create(ctx context.Context, d chat.Draft) (chat.Message, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return chat.Message{}, err
	}

	msg := chat.Message{
		ID:            randx.MessageID(),
		RoomID:        d.RoomID,
		SenderID:      d.SenderID,
		ReceiverID:    d.ReceiverID,
		Body:          d.Body,
		ProductRef:    d.ProductRef,
		AttachmentKey: d.AttachmentKey,
	}

	err := s.q.QueryRow(ctx, insertMessage,
		msg.ID, msg.RoomID, msg.SenderID, msg.ReceiverID, msg.Body, msg.ProductRef, msg.AttachmentKey,
	).Scan(&msg.CreatedAt)
	if err != nil {
		switch {
		case IsForeignKeyViolation(err), IsCheckViolation(err):
			return chat.Message{}, errs.NewError(errs.ErrInvalidParams)
		case IsUniqueViolation(err):
			// ids are generated above, not by the caller
			return chat.Message{}, errs.NewError(errs.ErrPersistence)
		default:
			return chat.Message{}, fmt.Errorf("insert message: %w", err)
		}
	}

	msg.CreatedAt = msg.CreatedAt.UTC()
	return msg, nil
}

// ListByRoom implements chat.MessageStore.
func (s *MessageStore) ListByRoom(ctx context.Context, roomID string) ([]chat.Message, error) {
	return s.list(ctx, listRoomMessages, roomID)
}

// ListForUser implements chat.MessageStore.
func (s *MessageStore) ListForUser(ctx context.Context, userID string) ([]chat.Message, error) {
	return s.list(ctx, listUserMessages, userID)
}

// MarkRead implements chat.MessageStore.
func (s *MessageStore) MarkRead(ctx context.Context, roomID, receiverID string) error {
	if _, err := s.q.Exec(ctx, markRoomRead, roomID, receiverID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// CountUnread implements chat.MessageStore.
func (s *MessageStore) CountUnread(ctx context.Context, roomID, receiverID string) (int, error) {
	var n int64
	if err := s.q.QueryRow(ctx, countRoomUnread, roomID, receiverID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return int(n), nil
}

func (s *MessageStore) list(ctx context.Context, query string, arg string) ([]chat.Message, error) {
	rows, err := s.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[messageRow])
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}

	out := make([]chat.Message, len(records))
	for i, r := range records {
		out[i] = r.message()
	}
	return out, nil
}
