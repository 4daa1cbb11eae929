package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u1", Name: "Ada", Role: "student"}, testSecret, IdentityExpiration)
	require.NoError(t, err)

	payload, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u1", payload.ID)
	assert.Equal(t, "Ada", payload.Name)
	assert.Equal(t, TokenIssuer, payload.Issuer)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u1"}, testSecret, IdentityExpiration)
	require.NoError(t, err)

	_, err = ParseToken(token, "other")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_RequiresUserID(t *testing.T) {
	token, err := GenerateToken(&Payload{Name: "nobody"}, testSecret, IdentityExpiration)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u1"}, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_RejectsForeignIssuer(t *testing.T) {
	claims := &Payload{ID: "u1"}
	claims.Issuer = "someone-else"
	claims.ExpiresAt = time.Now().Add(time.Hour).Unix()

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentityExtractor_HeaderAndQuery(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "u7"}, testSecret, IdentityExpiration)
	require.NoError(t, err)

	var seen *Payload
	handler := IdentityExtractorMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPayloadFromContext(r)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), r)
	require.NotNil(t, seen)
	assert.Equal(t, "u7", seen.ID)

	seen = nil
	r = httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	handler.ServeHTTP(httptest.NewRecorder(), r)
	require.NotNil(t, seen)
	assert.Equal(t, "u7", seen.ID)

	seen = nil
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	handler.ServeHTTP(httptest.NewRecorder(), r)
	assert.Nil(t, seen)
}

func TestRequireIdentity(t *testing.T) {
	handler := RequireIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(rec, r.WithContext(WithPayload(r.Context(), &Payload{ID: "u1"})))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
