package users

import "time"

// User is a user account. The password hash and confirmation code never
// leave the service layer.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsSuperuser bool      `json:"is_superuser"`
	IsActive    bool      `json:"is_active"`
	Confirmed   bool      `json:"confirmed"`
	DateJoined  time.Time `json:"date_joined"`
}

// NewUser carries the fields persisted when an account is created.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	ConfirmCode  string
	IsSuperuser  bool
}

// Input carries the fields a user update may change.
type Input struct {
	Username string
	Email    string
}

// RegisterInput is the self-service registration payload.
type RegisterInput struct {
	Username string
	Password string
	Email    string
}

// CreateInput is the administrative account-creation payload.
type CreateInput struct {
	Username    string
	Password    string
	Email       string
	IsSuperuser bool
}
