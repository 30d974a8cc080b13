package route

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"portunus/internal/domain/pagination"
	domain "portunus/internal/domain/route"
	apperrors "portunus/pkg/errors"
)

// Repository defines the interface for route data access operations.
type Repository interface {
	Create(ctx context.Context, r *domain.Route) (int64, error)
	Update(ctx context.Context, r *domain.Route) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Route, error)
	GetByHostname(ctx context.Context, hostname string) (*domain.Route, error)
	GetByName(ctx context.Context, name string) (*domain.Route, error)
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Route, int64, error)
}

var _ Usecase = (*usecase)(nil)

// usecase implements route registration, ownership checks and resolution.
type usecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
}

// New creates the route use case.
func New(r Repository, log *zap.Logger) *usecase {
	return &usecase{repo: r, log: log, validate: validator.New()}
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "min", "max":
			if e.Kind() == reflect.String {
				messages = append(messages, fmt.Sprintf("%s must be %s %s characters", e.Field(), boundWord(e.Tag()), e.Param()))
			} else {
				messages = append(messages, fmt.Sprintf("%s must be %s %s", e.Field(), boundWord(e.Tag()), e.Param()))
			}
		case "hostname_rfc1123":
			messages = append(messages, fmt.Sprintf("%s must be a valid hostname", e.Field()))
		case "ip":
			messages = append(messages, fmt.Sprintf("%s must be a valid IP address", e.Field()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return apperrors.NewValidationError("", strings.Join(messages, ", "))
}

func boundWord(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}

func normalizeHostname(hostname string) string {
	return strings.ToLower(strings.TrimSpace(hostname))
}

// CreateRoute registers a route owned by the actor.
func (uc *usecase) CreateRoute(ctx context.Context, actor Actor, in CreateRouteRequest) (*CreateRouteResponse, error) {
	in.Hostname = normalizeHostname(in.Hostname)
	uc.log.Info("creating route", zap.Int64("actor", actor.UserID), zap.String("name", in.Name), zap.String("hostname", in.Hostname))

	if actor.UserID <= 0 {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}
	if in.Protocol == "" {
		in.Protocol = domain.ProtocolHTTP
	}

	if err := uc.ensureUnique(ctx, 0, in.Name, in.Hostname); err != nil {
		return nil, err
	}

	id, err := uc.repo.Create(ctx, &domain.Route{
		Name:     in.Name,
		Hostname: in.Hostname,
		IP:       in.IP,
		Port:     in.Port,
		Protocol: in.Protocol,
		TTL:      in.TTL,
		OwnerID:  actor.UserID,
	})
	if err != nil {
		uc.log.Error("failed to create route", zap.Error(err))
		return nil, err
	}

	return &CreateRouteResponse{ID: id}, nil
}

// UpdateRoute changes the non-zero fields of a route the actor may manage.
func (uc *usecase) UpdateRoute(ctx context.Context, actor Actor, in UpdateRouteRequest) (*UpdateRouteResponse, error) {
	in.Hostname = normalizeHostname(in.Hostname)
	uc.log.Info("updating route", zap.Int64("actor", actor.UserID), zap.Int64("id", in.ID))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	current, err := uc.load(ctx, actor, in.ID)
	if err != nil {
		return nil, err
	}

	if err := uc.ensureUnique(ctx, in.ID, in.Name, in.Hostname); err != nil {
		return nil, err
	}

	updated := *current
	if in.Name != "" {
		updated.Name = in.Name
	}
	if in.Hostname != "" {
		updated.Hostname = in.Hostname
	}
	if in.IP != "" {
		updated.IP = in.IP
	}
	if in.Port != 0 {
		updated.Port = in.Port
	}
	if in.Protocol != "" {
		updated.Protocol = in.Protocol
	}
	if in.TTL != nil {
		updated.TTL = *in.TTL
	}

	id, err := uc.repo.Update(ctx, &updated)
	if err != nil {
		uc.log.Error("failed to update route", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &UpdateRouteResponse{ID: id}, nil
}

// DeleteRoute removes a route the actor may manage.
func (uc *usecase) DeleteRoute(ctx context.Context, actor Actor, in DeleteRouteRequest) (*DeleteRouteResponse, error) {
	uc.log.Info("deleting route", zap.Int64("actor", actor.UserID), zap.Int64("id", in.ID))

	if _, err := uc.load(ctx, actor, in.ID); err != nil {
		return nil, err
	}

	id, err := uc.repo.Delete(ctx, in.ID)
	if err != nil {
		uc.log.Error("failed to delete route", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &DeleteRouteResponse{ID: id}, nil
}

// GetRoute retrieves a route the actor may see.
func (uc *usecase) GetRoute(ctx context.Context, actor Actor, in GetRouteRequest) (*GetRouteResponse, error) {
	rt, err := uc.load(ctx, actor, in.ID)
	if err != nil {
		return nil, err
	}
	return &GetRouteResponse{Route: toDTO(rt)}, nil
}

// ListRoutes lists the actor's routes, or any owner's routes for administrators.
func (uc *usecase) ListRoutes(ctx context.Context, actor Actor, in ListRoutesRequest) (*ListRoutesResponse, error) {
	in.Page, in.Limit = pagination.Normalize(in.Page, in.Limit)

	filter := domain.ListFilter{OwnerID: actor.UserID, Query: in.Query, Page: in.Page, Limit: in.Limit}
	if actor.IsAdmin {
		filter.OwnerID = in.OwnerID
	}

	uc.log.Info("listing routes", zap.Int64("actor", actor.UserID), zap.Int64("owner_id", filter.OwnerID), zap.String("query", in.Query), zap.Int64("page", in.Page), zap.Int64("limit", in.Limit))

	if !actor.IsAdmin && actor.UserID <= 0 {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	domainRoutes, total, err := uc.repo.List(ctx, filter)
	if err != nil {
		uc.log.Warn("failed to list routes", zap.Error(err))
		return nil, err
	}

	routes := make([]Route, len(domainRoutes))
	for i := range domainRoutes {
		routes[i] = toDTO(&domainRoutes[i])
	}

	return &ListRoutesResponse{
		Routes:     routes,
		Pagination: pagination.New(total, in.Page, in.Limit),
	}, nil
}

// ResolveRoute returns the route answering for a hostname.
func (uc *usecase) ResolveRoute(ctx context.Context, actor Actor, in ResolveRouteRequest) (*ResolveRouteResponse, error) {
	in.Hostname = normalizeHostname(in.Hostname)

	if err := uc.validate.Struct(in); err != nil {
		return nil, formatValidationError(err)
	}

	rt, err := uc.repo.GetByHostname(ctx, in.Hostname)
	if err != nil {
		uc.log.Error("failed to resolve route", zap.String("hostname", in.Hostname), zap.Error(err))
		return nil, err
	}
	if rt == nil {
		uc.log.Debug("no route for hostname", zap.String("hostname", in.Hostname), zap.Int64("actor", actor.UserID))
		return nil, apperrors.NewNotFoundError("route", fmt.Sprintf("no route for hostname %q", in.Hostname))
	}

	return &ResolveRouteResponse{Route: toDTO(rt)}, nil
}

// load fetches a route and hides it from actors that do not own it.
func (uc *usecase) load(ctx context.Context, actor Actor, id int64) (*domain.Route, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("id", "invalid route id")
	}

	rt, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		uc.log.Warn("failed to get route", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	if !actor.IsAdmin && rt.OwnerID != actor.UserID {
		uc.log.Warn("route access denied", zap.Int64("id", id), zap.Int64("actor", actor.UserID))
		return nil, apperrors.NewNotFoundError("route", fmt.Sprintf("route not found: id=%d", id))
	}

	return rt, nil
}

func (uc *usecase) ensureUnique(ctx context.Context, self int64, name, hostname string) error {
	if name != "" {
		existing, err := uc.repo.GetByName(ctx, name)
		if err != nil {
			uc.log.Error("failed to check existing route name", zap.String("name", name), zap.Error(err))
			return apperrors.NewInternalError("failed to validate route name uniqueness", err)
		}
		if existing != nil && existing.ID != self {
			return apperrors.NewAlreadyExistsError("route", "route name already exists")
		}
	}

	if hostname != "" {
		existing, err := uc.repo.GetByHostname(ctx, hostname)
		if err != nil {
			uc.log.Error("failed to check existing hostname", zap.String("hostname", hostname), zap.Error(err))
			return apperrors.NewInternalError("failed to validate hostname uniqueness", err)
		}
		if existing != nil && existing.ID != self {
			return apperrors.NewAlreadyExistsError("route", "hostname already registered")
		}
	}

	return nil
}

func toDTO(r *domain.Route) Route {
	return Route{
		ID:        r.ID,
		Name:      r.Name,
		Hostname:  r.Hostname,
		IP:        r.IP,
		Port:      r.Port,
		Protocol:  r.Protocol,
		TTL:       r.EffectiveTTL(),
		Target:    r.Target(),
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
