package user

import "time"

// User represents a user entity in the system.
type User struct {
	ID           int64     // ID is the unique identifier for the user
	Username     string    // Username is the unique login name
	Email        string    // Email is the unique email address of the user
	PasswordHash string    // PasswordHash is the bcrypt hash of the password
	IsAdmin      bool      // IsAdmin grants access to every user and route
	CreatedAt    time.Time // CreatedAt is when the account was registered
}
