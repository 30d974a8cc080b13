package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"portunus/internal/domain/pagination"
	"portunus/internal/domain/route"
	"portunus/internal/models"
	apperrors "portunus/pkg/errors"
	"portunus/pkg/security"
)

// RouteRepoPG implements the route Repository interface with GORM.
type RouteRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRouteRepoPG creates a new instance of RouteRepoPG.
func NewRouteRepoPG(db *gorm.DB, log *zap.Logger) *RouteRepoPG {
	return &RouteRepoPG{db: db, log: log}
}

// Create inserts a new route.
func (r *RouteRepoPG) Create(ctx context.Context, rt *route.Route) (int64, error) {
	if rt == nil {
		return 0, errors.New("route cannot be nil")
	}

	model := fromDomainRoute(rt)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, apperrors.NewAlreadyExistsError("route", "route name or hostname already exists")
		}
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return 0, apperrors.NewNotFoundError("user", fmt.Sprintf("route owner not found: id=%d", rt.OwnerID))
		}
		r.log.Error("failed to create route in db", zap.Error(err), zap.String("hostname", rt.Hostname))
		return 0, fmt.Errorf("failed to create route: %w", err)
	}

	r.log.Info("route created in db", zap.Int64("id", model.ID), zap.String("hostname", model.Hostname))
	return model.ID, nil
}

// Update writes the mutable columns of an existing route. Ownership never changes.
func (r *RouteRepoPG) Update(ctx context.Context, rt *route.Route) (int64, error) {
	if rt == nil {
		return 0, errors.New("route cannot be nil")
	}

	result := r.db.WithContext(ctx).Model(&models.Route{ID: rt.ID}).Updates(map[string]any{
		"name":     rt.Name,
		"hostname": rt.Hostname,
		"ip":       rt.IP,
		"port":     rt.Port,
		"protocol": rt.Protocol,
		"ttl":      rt.TTL,
	})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return 0, apperrors.NewAlreadyExistsError("route", "route name or hostname already exists")
		}
		r.log.Error("failed to update route in db", zap.Error(result.Error), zap.Int64("id", rt.ID))
		return 0, fmt.Errorf("failed to update route: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, routeNotFound(rt.ID)
	}

	r.log.Info("route updated in db", zap.Int64("id", rt.ID))
	return rt.ID, nil
}

// Delete removes a route by ID.
func (r *RouteRepoPG) Delete(ctx context.Context, id int64) (int64, error) {
	if id <= 0 {
		return 0, errors.New("invalid route id")
	}

	result := r.db.WithContext(ctx).Delete(&models.Route{}, id)
	if result.Error != nil {
		r.log.Error("failed to delete route in db", zap.Error(result.Error), zap.Int64("id", id))
		return 0, fmt.Errorf("failed to delete route: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, routeNotFound(id)
	}

	r.log.Info("route deleted in db", zap.Int64("id", id))
	return id, nil
}

// GetByID retrieves a route by ID.
func (r *RouteRepoPG) GetByID(ctx context.Context, id int64) (*route.Route, error) {
	var model models.Route
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("route not found", zap.Int64("id", id))
			return nil, routeNotFound(id)
		}
		r.log.Error("failed to get route from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	return toDomainRoute(&model), nil
}

// GetByHostname retrieves the route answering for hostname. A missing route is (nil, nil).
func (r *RouteRepoPG) GetByHostname(ctx context.Context, hostname string) (*route.Route, error) {
	return r.getBy(ctx, "hostname", hostname)
}

// GetByName retrieves a route by its unique name. A missing route is (nil, nil).
func (r *RouteRepoPG) GetByName(ctx context.Context, name string) (*route.Route, error) {
	return r.getBy(ctx, "name", name)
}

func (r *RouteRepoPG) getBy(ctx context.Context, column, value string) (*route.Route, error) {
	var model models.Route
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get route from db", zap.Error(err), zap.String(column, value))
		return nil, fmt.Errorf("failed to get route by %s: %w", column, err)
	}

	return toDomainRoute(&model), nil
}

// List retrieves a page of routes and the total number of matches.
func (r *RouteRepoPG) List(ctx context.Context, filter route.ListFilter) ([]route.Route, int64, error) {
	q, err := security.ValidateSearchQuery(filter.Query)
	if err != nil {
		return nil, 0, apperrors.NewValidationError("query", fmt.Sprintf("invalid search query: %v", err))
	}

	tx := r.db.WithContext(ctx).Model(&models.Route{})
	if filter.OwnerID > 0 {
		tx = tx.Where("owner_id = ?", filter.OwnerID)
	}
	if q != "" {
		pattern := security.LikePattern(q)
		tx = tx.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(hostname) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		r.log.Error("failed to count routes", zap.Error(err), zap.String("query", q))
		return nil, 0, fmt.Errorf("failed to count routes: %w", err)
	}

	var rows []models.Route
	err = tx.Order("id").
		Offset(pagination.Offset(filter.Page, filter.Limit)).
		Limit(int(filter.Limit)).
		Find(&rows).Error
	if err != nil {
		r.log.Error("failed to list routes from db", zap.Error(err), zap.Int64("owner_id", filter.OwnerID), zap.String("query", q))
		return nil, 0, fmt.Errorf("failed to list routes: %w", err)
	}

	routes := make([]route.Route, len(rows))
	for i := range rows {
		routes[i] = *toDomainRoute(&rows[i])
	}

	return routes, total, nil
}

func routeNotFound(id int64) error {
	return apperrors.NewNotFoundError("route", fmt.Sprintf("route not found: id=%d", id))
}

func fromDomainRoute(rt *route.Route) models.Route {
	return models.Route{
		ID:       rt.ID,
		Name:     rt.Name,
		Hostname: rt.Hostname,
		IP:       rt.IP,
		Port:     rt.Port,
		Protocol: rt.Protocol,
		TTL:      rt.TTL,
		OwnerID:  rt.OwnerID,
	}
}

func toDomainRoute(m *models.Route) *route.Route {
	return &route.Route{
		ID:        m.ID,
		Name:      m.Name,
		Hostname:  m.Hostname,
		IP:        m.IP,
		Port:      m.Port,
		Protocol:  m.Protocol,
		TTL:       m.TTL,
		OwnerID:   m.OwnerID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
