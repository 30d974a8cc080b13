package route

import (
	"net"
	"strconv"
	"time"
)

// DefaultTTL is the time-to-live, in seconds, applied to routes that do not set one.
const DefaultTTL = 120

// Supported route protocols.
const (
	ProtocolHTTP  = "http"
	ProtocolHTTPS = "https"
	ProtocolTCP   = "tcp"
)

// Route represents a route entity: a public hostname served by a backend.
type Route struct {
	ID        int64     // ID is the unique identifier for the route
	Name      string    // Name is a unique, human-readable label
	Hostname  string    // Hostname is the public host the route answers for (lower case)
	IP        string    // IP is the backend address
	Port      int       // Port is the backend port
	Protocol  string    // Protocol is one of http, https, tcp
	TTL       int       // TTL is how long resolvers may cache the route, 0 means DefaultTTL
	OwnerID   int64     // OwnerID is the user that registered the route
	CreatedAt time.Time // CreatedAt is when the route was registered
	UpdatedAt time.Time // UpdatedAt is when the route last changed
}

// Target renders the backend address the route forwards to.
func (r *Route) Target() string {
	hostPort := net.JoinHostPort(r.IP, strconv.Itoa(r.Port))
	if r.Protocol == ProtocolTCP {
		return hostPort
	}
	return r.Protocol + "://" + hostPort
}

// EffectiveTTL returns the TTL with the default applied.
func (r *Route) EffectiveTTL() int {
	if r.TTL <= 0 {
		return DefaultTTL
	}
	return r.TTL
}

// ListFilter narrows a route listing.
type ListFilter struct {
	OwnerID int64  // OwnerID restricts results to one owner, 0 lists every route
	Query   string // Query matches name or hostname, case-insensitively
	Page    int64  // Page is 1-based
	Limit   int64  // Limit is the page size
}
