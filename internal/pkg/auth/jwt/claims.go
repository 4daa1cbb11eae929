package jwt

import "github.com/golang-jwt/jwt"

// Payload is the verified identity issued by the authentication service.
// The chat server only verifies these tokens; it never issues them for logins.
type Payload struct {
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the user identifier the chat core keys rooms and presence on.
	ID string `json:"id"`

	// Name is the display name shown to chat counterparts.
	Name string `json:"name"`

	// Avatar is the avatar URL, may be empty.
	Avatar string `json:"avatar,omitempty"`

	// Role is the marketplace role (e.g. "student", "admin").
	Role string `json:"role"`
}
