package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portunus/internal/usecase/route"
)

// RouteHandler handles HTTP requests for route operations
type RouteHandler struct {
	uc  route.Usecase
	log *zap.Logger
}

// NewRouteHandler creates a new RouteHandler instance
func NewRouteHandler(uc route.Usecase, log *zap.Logger) *RouteHandler {
	return &RouteHandler{uc: uc, log: log}
}

// CreateRouteRequest represents the HTTP request body for registering a route
type CreateRouteRequest struct {
	Name     string `json:"name" binding:"required"`
	Hostname string `json:"hostname" binding:"required"`
	IP       string `json:"ip" binding:"required"`
	Port     int    `json:"port" binding:"required"`
	Protocol string `json:"protocol"`
	TTL      int    `json:"ttl"`
}

// UpdateRouteRequest represents the HTTP request body for updating a route
type UpdateRouteRequest struct {
	Name     string `json:"name"`
	Hostname string `json:"hostname"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	TTL      *int   `json:"ttl"`
}

// RouteResponse represents the HTTP response for route data
type RouteResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Hostname  string    `json:"hostname"`
	IP        string    `json:"ip"`
	Port      int       `json:"port"`
	Protocol  string    `json:"protocol"`
	TTL       int       `json:"ttl"`
	Target    string    `json:"target"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListRoutesResponse represents the HTTP response for listing routes
type ListRoutesResponse struct {
	Routes     []RouteResponse `json:"routes"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

func toRouteResponse(r route.Route) RouteResponse {
	return RouteResponse{
		ID:        r.ID,
		Name:      r.Name,
		Hostname:  r.Hostname,
		IP:        r.IP,
		Port:      r.Port,
		Protocol:  r.Protocol,
		TTL:       r.TTL,
		Target:    r.Target,
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func actor(c *gin.Context) (route.Actor, bool) {
	id, admin, ok := callerID(c)
	return route.Actor{UserID: id, IsAdmin: admin}, ok
}

// CreateRoute handles POST /v1/routes
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid create route request", zap.Error(err))
		bindError(c, err)
		return
	}

	resp, err := h.uc.CreateRoute(c.Request.Context(), a, route.CreateRouteRequest{
		Name:     req.Name,
		Hostname: req.Hostname,
		IP:       req.IP,
		Port:     req.Port,
		Protocol: req.Protocol,
		TTL:      req.TTL,
	})
	if err != nil {
		handleError(c, h.log, "create route", err)
		return
	}

	c.JSON(http.StatusCreated, IDResponse{ID: resp.ID})
}

// GetRoute handles GET /v1/routes/:id
func (h *RouteHandler) GetRoute(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.uc.GetRoute(c.Request.Context(), a, route.GetRouteRequest{ID: id})
	if err != nil {
		handleError(c, h.log, "get route", err)
		return
	}

	c.JSON(http.StatusOK, toRouteResponse(resp.Route))
}

// UpdateRoute handles PUT /v1/routes/:id
func (h *RouteHandler) UpdateRoute(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid update route request", zap.Error(err))
		bindError(c, err)
		return
	}

	resp, err := h.uc.UpdateRoute(c.Request.Context(), a, route.UpdateRouteRequest{
		ID:       id,
		Name:     req.Name,
		Hostname: req.Hostname,
		IP:       req.IP,
		Port:     req.Port,
		Protocol: req.Protocol,
		TTL:      req.TTL,
	})
	if err != nil {
		handleError(c, h.log, "update route", err)
		return
	}

	c.JSON(http.StatusOK, IDResponse{ID: resp.ID})
}

// DeleteRoute handles DELETE /v1/routes/:id
func (h *RouteHandler) DeleteRoute(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.uc.DeleteRoute(c.Request.Context(), a, route.DeleteRouteRequest{ID: id})
	if err != nil {
		handleError(c, h.log, "delete route", err)
		return
	}

	c.JSON(http.StatusOK, IDResponse{ID: resp.ID})
}

// ListRoutes handles GET /v1/routes. Administrators may pass owner_id.
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	query, page, limit := pageParams(c)
	ownerID, _ := strconv.ParseInt(c.Query("owner_id"), 10, 64)

	resp, err := h.uc.ListRoutes(c.Request.Context(), a, route.ListRoutesRequest{
		OwnerID: ownerID,
		Query:   query,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		handleError(c, h.log, "list routes", err)
		return
	}

	routes := make([]RouteResponse, len(resp.Routes))
	for i, r := range resp.Routes {
		routes[i] = toRouteResponse(r)
	}

	c.JSON(http.StatusOK, ListRoutesResponse{
		Routes:     routes,
		Pagination: toPagination(resp.Pagination),
	})
}

// Resolve handles GET /v1/resolve/:hostname
func (h *RouteHandler) Resolve(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	resp, err := h.uc.ResolveRoute(c.Request.Context(), a, route.ResolveRouteRequest{Hostname: c.Param("hostname")})
	if err != nil {
		handleError(c, h.log, "resolve route", err)
		return
	}

	c.Header("Cache-Control", "max-age="+strconv.Itoa(resp.Route.TTL))
	c.JSON(http.StatusOK, toRouteResponse(resp.Route))
}
