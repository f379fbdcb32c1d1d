package dto

// Data Transfer Objects for the signup / token-exchange handshake

// SignupRequest: payload for passwordless signup
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

// SignupResponse echoes the accepted pair; the confirmation code goes out by
// email, never in the response body.
type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest: payload for exchanging a confirmation code for a bearer token
type TokenRequest struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// TokenResponse: response payload after a successful exchange
type TokenResponse struct {
	AccessToken string `json:"token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}
