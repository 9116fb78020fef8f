package model

import "time"

// DefaultUserName is stored when a registration omits the display name.
const DefaultUserName = "New User"

// User represents a user in the database.
type User struct {
	ID           int64
	Email        string
	Name         string
	RegisteredAt time.Time
}

// Credential is the password record owned 1:1 by a user.
type Credential struct {
	UserID       int64
	PasswordHash string
}

// CreateUserRequest represents a user registration request.
// Name is optional; nil means the default display name is used.
type CreateUserRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ToResponse strips the user down to its public fields.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		RegisteredAt: u.RegisteredAt,
	}
}
