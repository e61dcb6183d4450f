// file: model/request.go

package model

// SessionRequest is the sign-in payload for POST /sessions.
type SessionRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RefreshRequest is the payload for POST /refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// SessionResponse is returned by a successful sign-in.
type SessionResponse struct {
	TokenPair
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

// MeResponse describes the authenticated user.
type MeResponse struct {
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}
