package auth

import "github.com/google/uuid"

// TokenResponse represents an access token response
// swagger:model TokenResponse
type TokenResponse struct {
	AccessToken string `json:"access_token" example:"<JWT>"`
	TokenType   string `json:"token_type" example:"Bearer"`
	ExpiresIn   int    `json:"expires_in" example:"900"`
	DeviceID    string `json:"device_id,omitempty" example:"web-uuid-123"`
}

// LoginRequest represents the password login request body
// swagger:model LoginRequest
type LoginRequest struct {
	Identifier string `json:"identifier" example:"alice@example.com"`
	Password   string `json:"password" example:"Secretp@ssw0rd"`
	DeviceID   string `json:"device_id,omitempty" example:"web-uuid-123"`
}

// RegisterRequest represents the registration request body
// swagger:model RegisterRequest
type RegisterRequest struct {
	Identifier  string `json:"identifier" example:"alice@example.com"`
	Password    string `json:"password" example:"Secretp@ssw0rd"`
	DisplayName string `json:"display_name" example:"Alice"`
	DeviceID    string `json:"device_id,omitempty" example:"web-uuid-123"`
}

// MeResponse describes the signed-in user.
// swagger:model MeResponse
type MeResponse struct {
	ID          uuid.UUID `json:"id"`
	Identifier  string    `json:"identifier" example:"alice@example.com"`
	DisplayName string    `json:"display_name" example:"Alice"`
	DeviceID    string    `json:"device_id,omitempty"`
}
