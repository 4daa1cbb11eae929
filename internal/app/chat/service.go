package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"campushub/internal/app/user"
	"campushub/internal/pkg/errs"
	"campushub/internal/pkg/logx"
)

// Service implements the request/response side of chat: history, conversation
// summaries and the plain HTTP send path.
type Service struct {
	store  MessageStore
	users  user.Directory
	logger zerolog.Logger
}

// NewService creates a Service over the given store and user directory.
func NewService(store MessageStore, users user.Directory) *Service {
	return &Service{
		store:  store,
		users:  users,
		logger: logx.Component("ChatService"),
	}
}

// GetHistory returns the room shared by the two users, oldest first, and then marks every
// message addressed to currentUserID in that room as read. Messages are returned as they
// were before the read flags flipped.
func (s *Service) GetHistory(ctx context.Context, currentUserID, otherUserID string) ([]MessageView, error) {
	if err := ValidatePair(currentUserID, otherUserID); err != nil {
		return nil, err
	}

	roomID := DeriveRoomID(currentUserID, otherUserID)

	messages, err := s.store.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room %s: %w", roomID, err)
	}

	if err := s.store.MarkRead(ctx, roomID, currentUserID); err != nil {
		return nil, fmt.Errorf("mark room %s read: %w", roomID, err)
	}

	return s.Populate(ctx, messages...), nil
}

// GetConversations summarizes every room the user has messages in, most recent first.
func (s *Service) GetConversations(ctx context.Context, currentUserID string) ([]Conversation, error) {
	if currentUserID == "" {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	messages, err := s.store.ListForUser(ctx, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("list messages of %s: %w", currentUserID, err)
	}

	conversations := BuildConversations(currentUserID, messages)

	others := lo.Map(conversations, func(c Conversation, _ int) string { return c.OtherUser.ID })
	found := s.lookup(ctx, others...)

	for i := range conversations {
		c := &conversations[i]

		unread, err := s.store.CountUnread(ctx, c.RoomID, currentUserID)
		if err != nil {
			return nil, fmt.Errorf("count unread in %s: %w", c.RoomID, err)
		}

		c.UnreadCount = unread
		c.OtherUser = user.Resolve(found, c.OtherUser.ID)
	}

	return conversations, nil
}

// SendMessage stores a message without any real-time delivery.
func (s *Service) SendMessage(ctx context.Context, d Draft) (MessageView, error) {
	msg, err := s.Persist(ctx, d)
	if err != nil {
		return MessageView{}, err
	}

	return s.Populate(ctx, msg)[0], nil
}

// Persist validates and stores a draft. Validation failures come back unchanged;
// store failures are logged and reported as ErrPersistence, or ErrDeliveryTimeout
// when the context deadline expired first.
func (s *Service) Persist(ctx context.Context, d Draft) (Message, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return Message{}, err
	}

	msg, err := s.store.Create(ctx, d)
	if err == nil {
		return msg, nil
	}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		return Message{}, customErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn().Err(err).Str("room_id", d.RoomID).Msg("Message persistence timed out.")
		return Message{}, errs.NewError(errs.ErrDeliveryTimeout)
	}

	s.logger.Error().Err(err).Str("room_id", d.RoomID).Msg("Message persistence failed.")
	return Message{}, errs.NewError(errs.ErrPersistence)
}

// Populate attaches sender and receiver display identities to messages.
// Directory failures degrade to id-only identities.
func (s *Service) Populate(ctx context.Context, messages ...Message) []MessageView {
	ids := lo.FlatMap(messages, func(m Message, _ int) []string {
		return []string{m.SenderID, m.ReceiverID}
	})
	found := s.lookup(ctx, ids...)

	return lo.Map(messages, func(m Message, _ int) MessageView {
		return MessageView{
			Message:  m,
			Sender:   user.Resolve(found, m.SenderID),
			Receiver: user.Resolve(found, m.ReceiverID),
		}
	})
}

func (s *Service) lookup(ctx context.Context, ids ...string) map[string]user.User {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return nil
	}

	found, err := s.users.Lookup(ctx, ids...)
	if err != nil {
		s.logger.Warn().Err(err).Int("ids", len(ids)).Msg("User directory lookup failed, using bare ids.")
		return nil
	}
	return found
}
