package route

import "context"

// Usecase defines the interface for route business logic operations.
type Usecase interface {
	CreateRoute(ctx context.Context, actor Actor, in CreateRouteRequest) (*CreateRouteResponse, error)
	UpdateRoute(ctx context.Context, actor Actor, in UpdateRouteRequest) (*UpdateRouteResponse, error)
	DeleteRoute(ctx context.Context, actor Actor, in DeleteRouteRequest) (*DeleteRouteResponse, error)
	GetRoute(ctx context.Context, actor Actor, in GetRouteRequest) (*GetRouteResponse, error)
	ListRoutes(ctx context.Context, actor Actor, in ListRoutesRequest) (*ListRoutesResponse, error)
	ResolveRoute(ctx context.Context, actor Actor, in ResolveRouteRequest) (*ResolveRouteResponse, error)
}
