package chat

import (
	"sort"

	"campushub/internal/app/user"
)

// BuildConversations reduces the messages of userID into one Conversation per room,
// keeping the latest message of each room. On equal timestamps the message seen first
// wins, which matches the newest-first order MessageStore.ListForUser returns.
// The result is ordered by last message time, most recent first. UnreadCount is left at 0
// and OtherUser carries only the id; callers fill both in.
func BuildConversations(userID string, messages []Message) []Conversation {
	index := make(map[string]int)
	conversations := make([]Conversation, 0)

	for _, m := range messages {
		if m.SenderID != userID && m.ReceiverID != userID {
			continue
		}

		otherID := m.SenderID
		if otherID == userID {
			otherID = m.ReceiverID
		}

		c := Conversation{
			RoomID:          m.RoomID,
			OtherUser:       user.User{ID: otherID},
			LastMessage:     m.Body,
			LastMessageTime: m.CreatedAt,
		}

		i, seen := index[m.RoomID]
		if !seen {
			index[m.RoomID] = len(conversations)
			conversations = append(conversations, c)
			continue
		}

		if m.CreatedAt.After(conversations[i].LastMessageTime) {
			conversations[i] = c
		}
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessageTime.After(conversations[j].LastMessageTime)
	})

	return conversations
}
