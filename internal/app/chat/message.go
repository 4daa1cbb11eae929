/*
Package chat contains the core logic of the marketplace chat: room identity, the message
store contract, presence and room membership, the real-time gateway and the history service.

This file defines the persisted Message, the Draft it is created from, and the derived
views (populated messages and conversations) returned to clients.
*/
package chat

import (
	"strings"
	"time"

	"campushub/internal/app/user"
	"campushub/internal/pkg/errs"
)

// MaxBodyBytes is the maximum allowed size of a message body.
const MaxBodyBytes = 5000

// Message is a persisted chat message. Only Read ever changes after creation.
type Message struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"roomId"`
	SenderID      string    `json:"senderId"`
	ReceiverID    string    `json:"receiverId"`
	Body          string    `json:"body"`
	Read          bool      `json:"read"`
	ProductRef    string    `json:"productRef,omitempty"`
	AttachmentKey string    `json:"attachmentKey,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Draft carries the client-supplied fields of a message before it is stored.
type Draft struct {
	RoomID        string
	SenderID      string
	ReceiverID    string
	Body          string
	ProductRef    string
	AttachmentKey string
}

// Normalize trims the body and fills RoomID from the participants when it is empty.
func (d Draft) Normalize() Draft {
	d.Body = strings.TrimSpace(d.Body)
	if d.RoomID == "" {
		d.RoomID = DeriveRoomID(d.SenderID, d.ReceiverID)
	}
	return d
}

// Validate checks a normalized draft. A room id that differs from the id derived
// from the participants is rejected with ErrInvalidRoom.
func (d Draft) Validate() error {
	if err := ValidatePair(d.SenderID, d.ReceiverID); err != nil {
		return err
	}

	if d.Body == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if len(d.Body) > MaxBodyBytes {
		return errs.NewError(errs.ErrMessageContentTooLong, MaxBodyBytes)
	}

	if d.RoomID != DeriveRoomID(d.SenderID, d.ReceiverID) {
		return errs.NewError(errs.ErrInvalidRoom)
	}

	if d.AttachmentKey != "" {
		if err := ValidateAttachmentKey(d.RoomID, d.AttachmentKey); err != nil {
			return err
		}
	}

	return nil
}

// MessageView is a message with the display identities of both participants attached.
type MessageView struct {
	Message
	Sender   user.User `json:"sender"`
	Receiver user.User `json:"receiver"`
}

// Conversation summarizes one room for one user. It is derived on every read, never stored.
type Conversation struct {
	RoomID          string    `json:"roomId"`
	OtherUser       user.User `json:"otherUser"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	UnreadCount     int       `json:"unreadCount"`
}
