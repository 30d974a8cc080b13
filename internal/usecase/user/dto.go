package user

import (
	"time"

	"portunus/internal/domain/pagination"
)

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	Username string `validate:"required,min=3,max=64,username"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,password"`
	IsAdmin  bool
}

// CreateUserResponse represents the response payload after creating a user.
type CreateUserResponse struct {
	ID int64
}

// UpdateUserRequest represents the request payload for updating an existing user.
// Empty fields are left unchanged; IsAdmin is only applied when non-nil.
type UpdateUserRequest struct {
	ID       int64  `validate:"required,gt=0"`
	Username string `validate:"omitempty,min=3,max=64,username"`
	Email    string `validate:"omitempty,email,max=255"`
	Password string `validate:"omitempty,min=8,password"`
	IsAdmin  *bool
}

// UpdateUserResponse represents the response payload after updating a user.
type UpdateUserResponse struct {
	ID int64
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID int64
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// GetUserResponse represents the response payload for user details.
type GetUserResponse struct {
	User User
}

// ListUsersRequest represents the request payload for listing users.
// It supports pagination and search functionality.
type ListUsersRequest struct {
	Query string
	Page  int64
	Limit int64
}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users      []User
	Pagination *pagination.Pagination
}

// AuthenticateRequest carries login credentials. Identifier is a username or an email.
type AuthenticateRequest struct {
	Identifier string `validate:"required,max=255"`
	Password   string `validate:"required,password"`
}

// AuthenticateResponse is the authenticated user.
type AuthenticateResponse struct {
	User User
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID        int64
	Username  string
	Email     string
	IsAdmin   bool
	CreatedAt time.Time
}
