// Package models holds the GORM models persisted by portunus. They are the
// types bound into the admin shell as "User" and "Route".
package models

import (
	"reflect"
	"time"
)

// User is an account allowed to register routes.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"is_admin"`
	Routes       []Route   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// Route maps a public hostname to a backend address.
type Route struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:64;not null;uniqueIndex" json:"name"`
	Hostname  string    `gorm:"size:253;not null;uniqueIndex" json:"hostname"`
	IP        string    `gorm:"size:45;not null" json:"ip"`
	Port      int       `gorm:"not null" json:"port"`
	Protocol  string    `gorm:"size:8;not null;default:http" json:"protocol"`
	TTL       int       `gorm:"not null;default:0" json:"ttl"`
	OwnerID   int64     `gorm:"not null;index" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Route model.
func (Route) TableName() string {
	return "routes"
}

var (
	// UserType is the User model type.
	UserType = reflect.TypeFor[User]()
	// RouteType is the Route model type.
	RouteType = reflect.TypeFor[Route]()
)

// All returns one instance of every model, parents before children.
func All() []any {
	return []any{&User{}, &Route{}}
}
