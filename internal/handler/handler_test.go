package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"campushub/internal/app/chat"
	"campushub/internal/app/user"
	"campushub/internal/configs"
	"campushub/internal/pkg/auth/jwt"
	"campushub/internal/pkg/errs"
	"campushub/internal/pkg/limiter"
)

const (
	testSecret = "handler-test-secret"
	testOrigin = "https://campus.example.test"
)

type fakeStorage struct{}

func (fakeStorage) PresignUpload(_ context.Context, key, _ string, _ int64, _ time.Duration) (string, error) {
	return "https://files.example.test/upload/" + key, nil
}

func (fakeStorage) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.example.test/download/" + key, nil
}

type testEnv struct {
	deps    *AppDeps
	handler http.Handler
}

func newTestEnv(t *testing.T, opts ...func(*AppDeps)) *testEnv {
	t.Helper()

	directory := user.NewStaticDirectory(
		user.User{ID: "u1", Name: "Ada"},
		user.User{ID: "u2", Name: "Grace"},
	)
	service := chat.NewService(chat.NewMemoryStore(), directory)
	hub := chat.NewHub(service, chat.HubConfig{})
	t.Cleanup(hub.Shutdown)

	deps := &AppDeps{
		Hub:            hub,
		Chat:           service,
		Config:         &configs.AppConfig{Environment: "development", JWTSecret: testSecret},
		StorageService: fakeStorage{},
	}
	for _, opt := range opts {
		opt(deps)
	}
	if deps.Limiters == nil {
		deps.Limiters = NewRateLimiters()
	}
	t.Cleanup(deps.Limiters.Stop)

	return &testEnv{deps: deps, handler: Router(deps)}
}

func inProduction(deps *AppDeps) {
	deps.Config.Environment = "production"
	deps.Config.AllowedOrigins = []string{testOrigin}
}

func token(t *testing.T, userID string) string {
	t.Helper()

	tok, err := jwt.GenerateToken(&jwt.Payload{ID: userID}, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		r.Header.Set("Authorization", "Bearer "+token(t, userID))
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status, code int) {
	t.Helper()

	assert.Equal(t, status, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.EqualValues(t, code, body["code"])
}

func TestChatRoutes_RequireIdentity(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/chat/conversations", "/api/chat/history/u2"} {
		assertErrorCode(t, env.do(t, http.MethodGet, path, "", nil), http.StatusUnauthorized, errs.ErrUnauthorized)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/chat/conversations", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendThenReadFlow(t *testing.T) {
	env := newTestEnv(t)

	for _, text := range []string{"hi", "still selling the desk?", "ping"} {
		w := env.do(t, http.MethodPost, "/api/chat/send", "u1", SendMessageInput{ReceiverID: "u2", Body: text})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		message := body["message"].(map[string]any)
		assert.Equal(t, "u1_u2", message["roomId"])
		assert.Equal(t, "Ada", message["sender"].(map[string]any)["name"])
	}

	w := env.do(t, http.MethodGet, "/api/chat/conversations", "u2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	conversations := decodeBody(t, w)["conversations"].([]any)
	require.Len(t, conversations, 1)
	conv := conversations[0].(map[string]any)
	assert.Equal(t, "ping", conv["lastMessage"])
	assert.EqualValues(t, 3, conv["unreadCount"])
	assert.Equal(t, "Ada", conv["otherUser"].(map[string]any)["name"])

	w = env.do(t, http.MethodGet, "/api/chat/history/u1", "u2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	messages := decodeBody(t, w)["messages"].([]any)
	require.Len(t, messages, 3)
	assert.Equal(t, "hi", messages[0].(map[string]any)["body"])

	w = env.do(t, http.MethodGet, "/api/chat/conversations", "u2", nil)
	conv = decodeBody(t, w)["conversations"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 0, conv["unreadCount"])
}

func TestSend_Validation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/chat/send", "u1", map[string]string{"receiverId": "u2"})
	assertErrorCode(t, w, http.StatusBadRequest, errs.ErrInvalidParams)

	w = env.do(t, http.MethodPost, "/api/chat/send", "u1", SendMessageInput{ReceiverID: "u1", Body: "me"})
	assertErrorCode(t, w, http.StatusBadRequest, errs.ErrInvalidParams)

	w = env.do(t, http.MethodPost, "/api/chat/send", "u1", SendMessageInput{ReceiverID: "u2", Body: strings.Repeat("x", chat.MaxBodyBytes+1)})
	assertErrorCode(t, w, http.StatusBadRequest, errs.ErrMessageContentTooLong)

	w = env.do(t, http.MethodPost, "/api/chat/send", "u1", SendMessageInput{ReceiverID: "u2", Body: "look", AttachmentKey: "u2_u3/x.png"})
	assertErrorCode(t, w, http.StatusBadRequest, errs.ErrAttachmentKeyInvalid)
}

func TestSend_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(deps *AppDeps) {
		deps.Limiters = &RateLimiters{
			Send:    limiter.NewIPRateLimiter(rate.Every(time.Hour), 1),
			Connect: limiter.NewIPRateLimiter(rate.Every(time.Hour), 1),
		}
	})

	w := env.do(t, http.MethodPost, "/api/chat/send", "u1", SendMessageInput{ReceiverID: "u2", Body: "first"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/chat/send", "u1", SendMessageInput{ReceiverID: "u2", Body: "second"})
	assertErrorCode(t, w, http.StatusTooManyRequests, errs.ErrRateLimitExceeded)
}

func TestHistory_RejectsSelf(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/chat/history/u1", "u1", nil)
	assertErrorCode(t, w, http.StatusBadRequest, errs.ErrInvalidParams)
}

func TestAttachments(t *testing.T) {
	env := newTestEnv(t)

	input := PresignUploadInput{RoomID: "u1_u2", FileName: "Desk.PNG", MimeType: "image/png", FileSize: 2048}
	w := env.do(t, http.MethodPost, "/api/chat/attachments/presign", "u1", input)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	key := body["attachmentKey"].(string)
	assert.True(t, strings.HasPrefix(key, "u1_u2/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "https://files.example.test/upload/"+key, body["presignedUrl"])

	w = env.do(t, http.MethodGet, "/api/chat/attachments?k="+key, "u2", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://files.example.test/download/"+key, w.Header().Get("Location"))

	w = env.do(t, http.MethodGet, "/api/chat/attachments?k="+key, "u3", nil)
	assertErrorCode(t, w, http.StatusForbidden, errs.ErrForbidden)

	input.RoomID = "u2_u3"
	w = env.do(t, http.MethodPost, "/api/chat/attachments/presign", "u1", input)
	assertErrorCode(t, w, http.StatusForbidden, errs.ErrForbidden)

	input.RoomID = "u1_u2"
	input.FileSize = chat.MaxAttachmentSize + 1
	w = env.do(t, http.MethodPost, "/api/chat/attachments/presign", "u1", input)
	assertErrorCode(t, w, http.StatusBadRequest, errs.ErrFileSizeTooLarge)

	w = env.do(t, http.MethodPost, "/api/chat/send", "u1", SendMessageInput{ReceiverID: "u2", Body: "photo", AttachmentKey: key})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAttachments_Disabled(t *testing.T) {
	env := newTestEnv(t)
	env.deps.StorageService = nil

	w := env.do(t, http.MethodGet, "/api/chat/attachments?k=u1_u2/a.png", "u1", nil)
	assertErrorCode(t, w, http.StatusServiceUnavailable, errs.ErrAttachmentsDisabled)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["gateway"].(map[string]any)["connections"])
}
