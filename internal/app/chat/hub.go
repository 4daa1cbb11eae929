package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"campushub/internal/pkg/errs"
	"campushub/internal/pkg/logx"
)

const (
	eventChannelBuffer = 1024

	// DefaultPersistTimeout bounds a single message write issued by the gateway.
	DefaultPersistTimeout = 5 * time.Second

	// DefaultExcerptLength is the number of characters kept in chat:notification excerpts.
	DefaultExcerptLength = 50
)

// HubConfig tunes a Hub. Zero values fall back to the defaults.
type HubConfig struct {
	PersistTimeout time.Duration
	ExcerptLength  int
}

// HubStats is a point-in-time snapshot of the gateway.
type HubStats struct {
	Connections int `json:"connections"`
	OnlineUsers int `json:"onlineUsers"`
}

type hubEventKind int

const (
	kindRegister hubEventKind = iota
	kindUnregister
	kindInbound
	kindPersisted
	kindStats
)

// hubEvent is one unit of work for the event loop. Every state change of the
// gateway travels through the same channel, so events from one connection are
// handled in the order they were submitted.
type hubEvent struct {
	kind   hubEventKind
	client *Client
	frame  []byte
	result persistResult
	reply  chan HubStats
}

type persistResult struct {
	view MessageView
	err  error
}

type eventHandler func(h *Hub, c *Client, data json.RawMessage) error

// eventHandlers maps inbound event names to their handlers. Everything but
// user:join requires an identified connection.
var eventHandlers = map[string]eventHandler{
	EventUserJoin:       (*Hub).handleUserJoin,
	EventChatJoin:       (*Hub).handleChatJoin,
	EventChatMessage:    (*Hub).handleChatMessage,
	EventChatTyping:     (*Hub).handleTyping,
	EventChatStopTyping: (*Hub).handleStopTyping,
}

// Hub is the real-time chat gateway. A single goroutine owns the presence
// registry, the room memberships and every connection's outbound queue.
type Hub struct {
	service *Service
	config  HubConfig

	clients    map[*Client]struct{}
	presence   *Presence
	membership *Membership

	events chan hubEvent

	validate *validator.Validate

	ctx    context.Context
	cancel context.CancelFunc

	// wg tracks the event loop and in-flight persistence goroutines.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs a Hub and starts its event loop.
func NewHub(service *Service, cfg HubConfig) *Hub {
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = DefaultPersistTimeout
	}
	if cfg.ExcerptLength <= 0 {
		cfg.ExcerptLength = DefaultExcerptLength
	}

	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		service:    service,
		config:     cfg,
		clients:    make(map[*Client]struct{}),
		presence:   NewPresence(),
		membership: NewMembership(),
		events:     make(chan hubEvent, eventChannelBuffer),
		validate:   validator.New(),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logx.Component("Hub"),
	}

	h.wg.Add(1)
	go h.run()

	return h
}

// Register adds a new connection. It reports false once the hub has shut down.
func (h *Hub) Register(c *Client) bool {
	return h.submit(hubEvent{kind: kindRegister, client: c})
}

// Unregister removes a connection and releases its presence and memberships.
func (h *Hub) Unregister(c *Client) {
	h.submit(hubEvent{kind: kindUnregister, client: c})
}

// Receive hands one raw inbound frame to the event loop.
func (h *Hub) Receive(c *Client, frame []byte) bool {
	return h.submit(hubEvent{kind: kindInbound, client: c, frame: frame})
}

// Stats returns connection counters, read from inside the event loop.
func (h *Hub) Stats(ctx context.Context) (HubStats, error) {
	reply := make(chan HubStats, 1)
	if !h.submit(hubEvent{kind: kindStats, reply: reply}) {
		return HubStats{}, errs.NewError(errs.ErrUnknown)
	}

	select {
	case stats := <-reply:
		return stats, nil
	case <-ctx.Done():
		return HubStats{}, ctx.Err()
	case <-h.ctx.Done():
		return HubStats{}, errs.NewError(errs.ErrUnknown)
	}
}

// Shutdown stops the event loop, closes every connection's queue and waits for
// in-flight writes to settle.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down Hub...")

	h.cancel()
	h.wg.Wait()

	h.logger.Info().Msg("Hub shutdown complete.")
}

func (h *Hub) submit(e hubEvent) bool {
	select {
	case <-h.ctx.Done():
		return false
	default:
	}

	select {
	case h.events <- e:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) run() {
	defer h.wg.Done()

	h.logger.Info().Msg("Hub event loop started.")

	defer func() {
		for c := range h.clients {
			c.close()
		}
		h.clients = nil
		h.logger.Info().Msg("Hub event loop stopped.")
	}()

	for {
		select {
		case e := <-h.events:
			h.handle(e)
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) handle(e hubEvent) {
	switch e.kind {
	case kindRegister:
		h.clients[e.client] = struct{}{}
		h.logger.Debug().Int("connections", len(h.clients)).Msg("Client registered.")

	case kindUnregister:
		h.disconnect(e.client)

	case kindInbound:
		if _, ok := h.clients[e.client]; !ok {
			return
		}
		h.dispatch(e.client, e.frame)

	case kindPersisted:
		h.deliverPersisted(e.client, e.result)

	case kindStats:
		e.reply <- HubStats{Connections: len(h.clients), OnlineUsers: h.presence.Len()}
	}
}

func (h *Hub) dispatch(c *Client, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		c.emitError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	handler, ok := eventHandlers[env.Event]
	if !ok {
		h.logger.Debug().Str("event", env.Event).Msg("Unknown event received.")
		c.emitError(errs.NewError(errs.ErrUnknownEvent))
		return
	}

	if env.Event != EventUserJoin && c.userID == "" {
		c.emitError(errs.NewError(errs.ErrNotIdentified))
		return
	}

	if err := handler(h, c, env.Data); err != nil {
		h.logger.Debug().Err(err).Str("event", env.Event).Str("user_id", c.userID).Msg("Event rejected.")
		c.emitError(err)
	}
}

// decode unmarshals data into dst and runs its validation tags.
func (h *Hub) decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if err := h.validate.Struct(dst); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}
	return nil
}

func (h *Hub) handleUserJoin(c *Client, data json.RawMessage) error {
	var userID string
	if err := json.Unmarshal(data, &userID); err != nil {
		var p UserJoinPayload
		if err := h.decode(data, &p); err != nil {
			return err
		}
		userID = p.UserID
	}

	userID = strings.TrimSpace(userID)
	if userID == "" || strings.Contains(userID, RoomSeparator) {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if c.verifiedID != "" && c.verifiedID != userID {
		return errs.NewError(errs.ErrForbidden)
	}

	if c.userID != "" && c.userID != userID {
		h.release(c)
	}

	if previous, ok := h.presence.Get(userID); ok && previous != c {
		h.logger.Info().Str("user_id", userID).Msg("User joined from a new connection, replacing presence entry.")
	}

	c.identify(userID)
	h.presence.Set(userID, c)

	h.logger.Info().Str("user_id", userID).Int("online_users", h.presence.Len()).Msg("User online.")
	h.broadcastAll(EventUserOnline, StatusPayload{UserID: userID})

	return nil
}

func (h *Hub) handleChatJoin(c *Client, data json.RawMessage) error {
	var p RoomPayload
	if err := h.decode(data, &p); err != nil {
		return err
	}

	if !RoomIncludes(p.RoomID, c.userID) {
		return errs.NewError(errs.ErrForbidden)
	}

	if h.membership.Join(c, p.RoomID) {
		h.logger.Debug().Str("user_id", c.userID).Str("room_id", p.RoomID).Msg("Joined room.")
	}
	return nil
}

func (h *Hub) handleChatMessage(c *Client, data json.RawMessage) error {
	var p MessagePayload
	if err := h.decode(data, &p); err != nil {
		return err
	}

	if p.SenderID != c.userID {
		return errs.NewError(errs.ErrForbidden)
	}

	draft := p.Draft().Normalize()
	if err := draft.Validate(); err != nil {
		return err
	}

	h.wg.Add(1)
	go h.persist(c, draft)

	return nil
}

// persist writes the draft outside the event loop and posts the outcome back into it.
func (h *Hub) persist(c *Client, d Draft) {
	defer h.wg.Done()

	ctx, cancel := context.WithTimeout(h.ctx, h.config.PersistTimeout)
	defer cancel()

	var result persistResult
	msg, err := h.service.Persist(ctx, d)
	if err != nil {
		result.err = err
	} else {
		result.view = h.service.Populate(ctx, msg)[0]
	}

	h.submit(hubEvent{kind: kindPersisted, client: c, result: result})
}

func (h *Hub) deliverPersisted(sender *Client, result persistResult) {
	if result.err != nil {
		sender.emitError(result.err)
		return
	}

	view := result.view
	h.broadcastRoom(view.RoomID, EventChatMessage, view, nil)

	receiver, online := h.presence.Get(view.ReceiverID)
	if !online || h.membership.IsMember(receiver, view.RoomID) {
		return
	}

	receiver.emit(EventChatNotification, NotificationPayload{
		From:           view.Sender,
		MessageExcerpt: Excerpt(view.Body, h.config.ExcerptLength),
		RoomID:         view.RoomID,
	})
}

func (h *Hub) handleTyping(c *Client, data json.RawMessage) error {
	var p TypingPayload
	if err := h.decode(data, &p); err != nil {
		return err
	}
	if !RoomIncludes(p.RoomID, c.userID) {
		return errs.NewError(errs.ErrForbidden)
	}

	h.broadcastRoom(p.RoomID, EventChatTyping, TypingNotice{UserName: p.UserName}, c)
	return nil
}

func (h *Hub) handleStopTyping(c *Client, data json.RawMessage) error {
	var p RoomPayload
	if err := h.decode(data, &p); err != nil {
		return err
	}
	if !RoomIncludes(p.RoomID, c.userID) {
		return errs.NewError(errs.ErrForbidden)
	}

	h.broadcastRoom(p.RoomID, EventChatStopTyping, StopTypingNotice{RoomID: p.RoomID}, c)
	return nil
}

// release drops the presence entry and memberships c holds under its current identity.
func (h *Hub) release(c *Client) {
	if c.userID != "" && h.presence.RemoveIf(c.userID, c) {
		h.logger.Info().Str("user_id", c.userID).Int("online_users", h.presence.Len()).Msg("User offline.")
		h.broadcastAll(EventUserOffline, StatusPayload{UserID: c.userID})
	}

	if rooms := h.membership.Rooms(c); len(rooms) > 0 {
		h.logger.Debug().Str("user_id", c.userID).Strs("rooms", rooms).Msg("Leaving rooms.")
	}
	h.membership.LeaveAll(c)
}

func (h *Hub) disconnect(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)

	h.release(c)
	c.close()

	h.logger.Debug().Str("user_id", c.userID).Int("connections", len(h.clients)).Msg("Client unregistered.")
}

func (h *Hub) broadcastAll(event string, data any) {
	frame, err := encodeEnvelope(event, data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Error marshaling broadcast.")
		return
	}
	for c := range h.clients {
		c.deliver(frame)
	}
}

// broadcastRoom delivers an event to every member of roomID except skip.
func (h *Hub) broadcastRoom(roomID, event string, data any, skip *Client) {
	frame, err := encodeEnvelope(event, data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Str("room_id", roomID).Msg("Error marshaling room broadcast.")
		return
	}
	for _, c := range h.membership.Members(roomID) {
		if c != skip {
			c.deliver(frame)
		}
	}
}
