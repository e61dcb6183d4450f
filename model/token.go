// file: model/token.go

package model

import "time"

// RefreshToken holds the data for a refresh token in the database.
type RefreshToken struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	TokenHash string    `json:"-"` // The hash is not exposed in JSON responses.
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenPair is what /sessions and /refresh hand back to clients.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Credential is the client-side view of a session: the short-lived access
// token attached to requests and the refresh token used to renew it.
type Credential struct {
	AccessToken  string
	RefreshToken string
}
