package cached

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"portunus/internal/adapter/cache"
	domain "portunus/internal/domain/route"
	"portunus/internal/usecase/route"
)

// RouteRepository implements route.Repository with a cache-aside layer
// in front of the hostname lookups that resolution depends on.
type RouteRepository struct {
	dbRepo route.Repository
	cache  cache.RouteCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewRouteRepository creates a new instance of RouteRepository. A nil cache disables caching.
func NewRouteRepository(dbRepo route.Repository, c cache.RouteCache, log *zap.Logger) *RouteRepository {
	return &RouteRepository{dbRepo: dbRepo, cache: c, log: log}
}

// Create delegates to the DB repository. A hostname miss may be cached as absent, so it is dropped.
func (r *RouteRepository) Create(ctx context.Context, rt *domain.Route) (int64, error) {
	id, err := r.dbRepo.Create(ctx, rt)
	if err != nil {
		return 0, err
	}
	r.invalidate(ctx, id, rt.Hostname)
	return id, nil
}

// Update writes through to the DB and drops the cached entries for both the old and the new hostname.
func (r *RouteRepository) Update(ctx context.Context, rt *domain.Route) (int64, error) {
	var oldHostname string
	if r.cache != nil {
		if prev, err := r.dbRepo.GetByID(ctx, rt.ID); err == nil {
			oldHostname = prev.Hostname
		}
	}

	id, err := r.dbRepo.Update(ctx, rt)
	if err != nil {
		return 0, err
	}

	r.invalidate(ctx, rt.ID, oldHostname, rt.Hostname)
	return id, nil
}

// Delete removes the route from the DB and from the cache.
func (r *RouteRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var hostname string
	if r.cache != nil {
		if prev, err := r.dbRepo.GetByID(ctx, id); err == nil {
			hostname = prev.Hostname
		}
	}

	deletedID, err := r.dbRepo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}

	r.invalidate(ctx, id, hostname)
	return deletedID, nil
}

// GetByID retrieves a route using the cache-aside pattern.
func (r *RouteRepository) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	if r.cache != nil {
		cached, err := r.cache.GetByID(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	return r.load(ctx, cache.RouteIDKey(id), func() (*domain.Route, error) {
		return r.dbRepo.GetByID(ctx, id)
	})
}

// GetByHostname retrieves the route for a hostname using the cache-aside pattern.
// Absent hostnames are not cached.
func (r *RouteRepository) GetByHostname(ctx context.Context, hostname string) (*domain.Route, error) {
	if r.cache != nil {
		cached, err := r.cache.GetByHostname(ctx, hostname)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.String("hostname", hostname), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	return r.load(ctx, cache.RouteHostKey(hostname), func() (*domain.Route, error) {
		return r.dbRepo.GetByHostname(ctx, hostname)
	})
}

// GetByName delegates to the DB repository.
func (r *RouteRepository) GetByName(ctx context.Context, name string) (*domain.Route, error) {
	return r.dbRepo.GetByName(ctx, name)
}

// List delegates to the DB repository.
func (r *RouteRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Route, int64, error) {
	return r.dbRepo.List(ctx, filter)
}

// load runs fetch once per key across concurrent callers and caches a found route.
func (r *RouteRepository) load(ctx context.Context, key string, fetch func() (*domain.Route, error)) (*domain.Route, error) {
	result, err, _ := r.group.Do(key, func() (any, error) {
		rt, err := fetch()
		if err != nil || rt == nil {
			return rt, err
		}

		if r.cache != nil {
			if err := r.cache.Set(ctx, rt); err != nil {
				r.log.Warn("failed to cache route", zap.Int64("id", rt.ID), zap.Error(err))
			}
		}
		return rt, nil
	})
	if err != nil {
		return nil, err
	}

	rt, _ := result.(*domain.Route)
	if rt == nil {
		return nil, nil
	}
	cp := *rt
	return &cp, nil
}

// ownedBy lists the routes of owner while their cache entries can still be
// found. It is nil-safe and returns nothing when caching is off.
func (r *RouteRepository) ownedBy(ctx context.Context, ownerID int64) []domain.Route {
	if r == nil || r.cache == nil {
		return nil
	}

	var owned []domain.Route
	for page := int64(1); ; page++ {
		rows, total, err := r.dbRepo.List(ctx, domain.ListFilter{OwnerID: ownerID, Page: page, Limit: 100})
		if err != nil {
			r.log.Warn("failed to list routes for invalidation", zap.Int64("owner_id", ownerID), zap.Error(err))
			return owned
		}
		owned = append(owned, rows...)
		if len(rows) == 0 || int64(len(owned)) >= total {
			return owned
		}
	}
}

func (r *RouteRepository) forget(ctx context.Context, routes []domain.Route) {
	if r == nil {
		return
	}
	for _, rt := range routes {
		r.invalidate(ctx, rt.ID, rt.Hostname)
	}
}

func (r *RouteRepository) invalidate(ctx context.Context, id int64, hostnames ...string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, id, hostnames...); err != nil {
		r.log.Warn("failed to invalidate route cache", zap.Int64("id", id), zap.Strings("hostnames", hostnames), zap.Error(err))
	}
}
