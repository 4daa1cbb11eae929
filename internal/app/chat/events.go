package chat

import (
	"encoding/json"

	"campushub/internal/app/user"
)

// Inbound event names.
const (
	EventUserJoin       = "user:join"
	EventChatJoin       = "chat:join"
	EventChatMessage    = "chat:message"
	EventChatTyping     = "chat:typing"
	EventChatStopTyping = "chat:stop-typing"
)

// Outbound event names. chat:message, chat:typing and chat:stop-typing are reused.
const (
	EventUserOnline       = "user:online"
	EventUserOffline      = "user:offline"
	EventChatNotification = "chat:notification"
	EventChatError        = "chat:error"
)

// Envelope is the frame exchanged over the WebSocket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// UserJoinPayload is the object form of user:join; the bare JSON string form is accepted too.
type UserJoinPayload struct {
	UserID string `json:"userId" validate:"required"`
}

// RoomPayload carries a room id (chat:join, chat:stop-typing).
type RoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

// TypingPayload is the inbound chat:typing payload.
type TypingPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	UserName string `json:"userName"`
}

// MessagePayload is the inbound chat:message payload.
type MessagePayload struct {
	SenderID      string `json:"senderId" validate:"required"`
	ReceiverID    string `json:"receiverId" validate:"required"`
	Body          string `json:"body" validate:"required"`
	RoomID        string `json:"roomId" validate:"required"`
	ProductRef    string `json:"productRef,omitempty"`
	AttachmentKey string `json:"attachmentKey,omitempty"`
}

// Draft converts the payload into a message draft.
func (p MessagePayload) Draft() Draft {
	return Draft{
		RoomID:        p.RoomID,
		SenderID:      p.SenderID,
		ReceiverID:    p.ReceiverID,
		Body:          p.Body,
		ProductRef:    p.ProductRef,
		AttachmentKey: p.AttachmentKey,
	}
}

// StatusPayload is sent with user:online and user:offline.
type StatusPayload struct {
	UserID string `json:"userId"`
}

// NotificationPayload is sent to a receiver who is online but not viewing the room.
type NotificationPayload struct {
	From           user.User `json:"from"`
	MessageExcerpt string    `json:"messageExcerpt"`
	RoomID         string    `json:"roomId"`
}

// TypingNotice is relayed to the other members of a room.
type TypingNotice struct {
	UserName string `json:"userName"`
}

// StopTypingNotice is relayed on chat:stop-typing.
type StopTypingNotice struct {
	RoomID string `json:"roomId"`
}

// ErrorPayload is sent with chat:error.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Excerpt returns at most limit runes of body.
func Excerpt(body string, limit int) string {
	if limit <= 0 {
		return body
	}

	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return string(runes[:limit])
}
