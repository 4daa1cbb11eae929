package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// IdentityExpiration defines the lifetime of identity tokens.
	IdentityExpiration = 24 * time.Hour

	// TokenIssuer identifies the authentication service that signs identity tokens.
	TokenIssuer = "CampusHub-Auth"
)

var (
	// ErrInvalidToken is returned for tokens that fail signature or claim validation.
	ErrInvalidToken = errors.New("invalid identity token")

	// ErrMissingSubject is returned for valid tokens that carry no user id.
	ErrMissingSubject = errors.New("identity token carries no user id")
)

// GenerateToken signs an identity token for payload with HS256.
// Production tokens come from the authentication service; this is used by tooling and tests.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString([]byte(secretKey))
}

// ParseToken verifies an HS256 identity token issued by TokenIssuer and returns its payload.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !claims.VerifyIssuer(TokenIssuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}

	if claims.ID == "" {
		return nil, ErrMissingSubject
	}

	return claims, nil
}
