package chat

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"campushub/internal/pkg/errs"
	"campushub/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// capacity of the outbound queue of a connection.
	sendBufferSize = 256
)

// Client is one live WebSocket connection. Its identity, queue state and room
// subscriptions are owned by the Hub's event loop.
type Client struct {
	hub *Hub

	// underlying WebSocket connection object; nil for connections driven in-process.
	conn *websocket.Conn

	// verifiedID is the user id proven by the upgrade request's token, if any.
	verifiedID string

	// userID is set by user:join. Empty while the connection is anonymous.
	userID string

	// a buffered channel used to queue frames waiting to be sent to the client.
	send chan []byte

	// closed is set once send has been closed.
	closed bool

	// logger is swapped by the hub loop on user:join and read by both pumps.
	logger atomic.Pointer[zerolog.Logger]
}

// NewClient constructs a connection bound to hub. verifiedID may be empty when the
// upgrade request carried no token.
func NewClient(hub *Hub, conn *websocket.Conn, verifiedID string) *Client {
	c := &Client{
		hub:        hub,
		conn:       conn,
		verifiedID: verifiedID,
		send:       make(chan []byte, sendBufferSize),
	}
	c.setLogger()
	return c
}

// identify binds the connection to userID. Must only be called from the hub loop.
func (c *Client) identify(userID string) {
	c.userID = userID
	c.setLogger()
}

func (c *Client) setLogger() {
	zc := logx.Logger().With().
		Str("component", "Client").
		Str("verified_id", c.verifiedID)
	if c.userID != "" {
		zc = zc.Str("user_id", c.userID)
	}

	logger := zc.Logger()
	c.logger.Store(&logger)
}

func (c *Client) log() *zerolog.Logger {
	return c.logger.Load()
}

// ReadPump reads frames from the WebSocket and hands them to the hub until the
// connection fails, then unregisters the client.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log().Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log().Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		if !c.hub.Receive(c, frame) {
			break
		}
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.log().Debug().Msg("Client connection cleanup starting.")

	c.hub.Unregister(c)

	if err := c.conn.Close(); err != nil {
		c.log().Debug().Err(err).Msg("Client connection close error")
	}
}

// WritePump writes queued frames to the WebSocket and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.log().Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one frame pulled from the send channel.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log().Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.log().Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.log().Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log().Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.log().Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// deliver queues an encoded frame. Full or closed queues drop the frame.
// Must only be called from the hub loop.
func (c *Client) deliver(frame []byte) {
	if c.closed {
		return
	}

	select {
	case c.send <- frame:
	default:
		c.log().Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping message")
	}
}

// emit encodes and queues one event. Must only be called from the hub loop.
func (c *Client) emit(event string, data any) {
	frame, err := encodeEnvelope(event, data)
	if err != nil {
		c.log().Error().Err(err).Str("event", event).Msg("Error marshaling event for client")
		return
	}
	c.deliver(frame)
}

// emitError sends chat:error built from err. Must only be called from the hub loop.
func (c *Client) emitError(err error) {
	customErr := errs.From(err)
	c.emit(EventChatError, ErrorPayload{Code: customErr.Code, Message: customErr.Message})
}

// close closes the outbound queue, which makes WritePump send a close frame.
// Must only be called from the hub loop.
func (c *Client) close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func encodeEnvelope(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
