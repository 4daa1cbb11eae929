package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campushub/internal/app/chat"
	"campushub/internal/pkg/errs"
)

func wsURL(server *httptest.Server, tok string) string {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	if tok != "" {
		url += "?token=" + tok
	}
	return url
}

func dial(t *testing.T, server *httptest.Server, tok string) *websocket.Conn {
	t.Helper()

	conn, res, err := websocket.DefaultDialer.Dial(wsURL(server, tok), http.Header{"Origin": {testOrigin}})
	require.NoError(t, err)
	res.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func write(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func read(t *testing.T, conn *websocket.Conn) chat.Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env chat.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

// readUntil skips unrelated broadcasts until event arrives.
func readUntil(t *testing.T, conn *websocket.Conn, event string) chat.Envelope {
	t.Helper()

	for {
		env := read(t, conn)
		if env.Event == event {
			return env
		}
	}
}

func TestWebSocket_ChatBetweenTwoUsers(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.handler)
	defer server.Close()

	ada := dial(t, server, token(t, "u1"))
	grace := dial(t, server, token(t, "u2"))

	write(t, ada, chat.EventUserJoin, "u2")
	errEnv := read(t, ada)
	require.Equal(t, chat.EventChatError, errEnv.Event)
	assert.Contains(t, string(errEnv.Data), fmt.Sprintf(`"code":%d`, errs.ErrForbidden))

	write(t, ada, chat.EventUserJoin, "u1")
	assert.Equal(t, chat.EventUserOnline, read(t, ada).Event)

	write(t, grace, chat.EventUserJoin, map[string]string{"userId": "u2"})
	readUntil(t, grace, chat.EventUserOnline)

	write(t, ada, chat.EventChatJoin, map[string]string{"roomId": "u1_u2"})
	write(t, ada, chat.EventChatMessage, map[string]string{
		"senderId":   "u1",
		"receiverId": "u2",
		"body":       "Is the bike still available?",
		"roomId":     "u1_u2",
	})

	echo := readUntil(t, ada, chat.EventChatMessage)
	assert.Contains(t, string(echo.Data), "Is the bike still available?")

	note := readUntil(t, grace, chat.EventChatNotification)
	assert.Contains(t, string(note.Data), `"roomId":"u1_u2"`)
	assert.Contains(t, string(note.Data), `"name":"Ada"`)

	ada.Close()
	offline := readUntil(t, grace, chat.EventUserOffline)
	assert.Contains(t, string(offline.Data), `"userId":"u1"`)
}

func TestWebSocket_RejectsAnonymousChat(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.handler)
	defer server.Close()

	conn := dial(t, server, "")
	write(t, conn, chat.EventChatJoin, map[string]string{"roomId": "u1_u2"})

	reply := read(t, conn)
	require.Equal(t, chat.EventChatError, reply.Event)
	assert.Contains(t, string(reply.Data), fmt.Sprintf(`"code":%d`, errs.ErrNotIdentified))
}

func TestWebSocket_ProductionRequiresToken(t *testing.T) {
	env := newTestEnv(t, inProduction)
	server := httptest.NewServer(env.handler)
	defer server.Close()

	_, res, err := websocket.DefaultDialer.Dial(wsURL(server, ""), http.Header{"Origin": {testOrigin}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, res)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	_, res, err = websocket.DefaultDialer.Dial(wsURL(server, "forged"), http.Header{"Origin": {testOrigin}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestWebSocket_TokenPinsIdentity(t *testing.T) {
	env := newTestEnv(t, inProduction)
	server := httptest.NewServer(env.handler)
	defer server.Close()

	mallory := dial(t, server, token(t, "u3"))

	write(t, mallory, chat.EventUserJoin, "u1")
	reply := read(t, mallory)
	require.Equal(t, chat.EventChatError, reply.Event)
	assert.Contains(t, string(reply.Data), fmt.Sprintf(`"code":%d`, errs.ErrForbidden))

	// still anonymous, so it cannot speak for u1 either
	write(t, mallory, chat.EventChatMessage, map[string]string{
		"senderId":   "u1",
		"receiverId": "u2",
		"body":       "send me the money",
		"roomId":     "u1_u2",
	})
	reply = read(t, mallory)
	require.Equal(t, chat.EventChatError, reply.Event)
	assert.Contains(t, string(reply.Data), fmt.Sprintf(`"code":%d`, errs.ErrNotIdentified))

	history, err := env.deps.Chat.GetHistory(context.Background(), "u2", "u1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
