package route

import (
	"time"

	"portunus/internal/domain/pagination"
)

// Actor is the authenticated caller an operation runs on behalf of.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

// CreateRouteRequest represents the request payload for registering a route.
type CreateRouteRequest struct {
	Name     string `validate:"required,min=3,max=64"`
	Hostname string `validate:"required,max=253,hostname_rfc1123"`
	IP       string `validate:"required,ip"`
	Port     int    `validate:"required,min=1,max=65535"`
	Protocol string `validate:"omitempty,oneof=http https tcp"`
	TTL      int    `validate:"min=0,max=86400"`
}

// CreateRouteResponse represents the response payload after registering a route.
type CreateRouteResponse struct {
	ID int64
}

// UpdateRouteRequest represents the request payload for updating a route.
// Zero-valued fields are left unchanged; TTL is only applied when non-nil.
type UpdateRouteRequest struct {
	ID       int64  `validate:"required,gt=0"`
	Name     string `validate:"omitempty,min=3,max=64"`
	Hostname string `validate:"omitempty,max=253,hostname_rfc1123"`
	IP       string `validate:"omitempty,ip"`
	Port     int    `validate:"omitempty,min=1,max=65535"`
	Protocol string `validate:"omitempty,oneof=http https tcp"`
	TTL      *int   `validate:"omitempty,min=0,max=86400"`
}

// UpdateRouteResponse represents the response payload after updating a route.
type UpdateRouteResponse struct {
	ID int64
}

// DeleteRouteRequest represents the request payload for deleting a route.
type DeleteRouteRequest struct {
	ID int64
}

// DeleteRouteResponse represents the response payload after deleting a route.
type DeleteRouteResponse struct {
	ID int64
}

// GetRouteRequest represents the request payload for retrieving a route.
type GetRouteRequest struct {
	ID int64
}

// GetRouteResponse represents the response payload for route details.
type GetRouteResponse struct {
	Route Route
}

// ListRoutesRequest represents the request payload for listing routes.
// OwnerID is honoured for administrators only; everyone else lists their own routes.
type ListRoutesRequest struct {
	OwnerID int64
	Query   string
	Page    int64
	Limit   int64
}

// ListRoutesResponse represents the response payload for route listing.
type ListRoutesResponse struct {
	Routes     []Route
	Pagination *pagination.Pagination
}

// ResolveRouteRequest asks for the route answering for a hostname.
type ResolveRouteRequest struct {
	Hostname string `validate:"required,max=253,hostname_rfc1123"`
}

// ResolveRouteResponse is the resolved route.
type ResolveRouteResponse struct {
	Route Route
}

// Route represents a route DTO for API responses.
type Route struct {
	ID        int64
	Name      string
	Hostname  string
	IP        string
	Port      int
	Protocol  string
	TTL       int
	Target    string
	OwnerID   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
