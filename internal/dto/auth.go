package dto

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SessionResponse is the token pair handed to a client. ExpiresIn is the
// refresh window in milliseconds; clients compute their own expiry timestamp
// from it. The refresh token is duplicated in the body as a fallback for
// environments where the httpOnly cookie is unreliable.
type SessionResponse struct {
	Success      bool          `json:"success"`
	User         *UserResponse `json:"user,omitempty"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    int64         `json:"expiresIn"`
}

type LogoutResponse struct {
	Success bool `json:"success"`
}

type StatusResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user"`
}
