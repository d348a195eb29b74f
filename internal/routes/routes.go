// Package routes registers HTTP routes and builds the service multiplexer.
package routes

import (
	"log/slog"
	"net/http"
)

type System interface {
	RegisterGroup(group Group)
	RegisterRoute(route Route)
	Build() http.Handler
	Groups() []Group
	Routes() []Route
}

type routes struct {
	routes []Route
	groups []Group
	logger *slog.Logger
}

func New(logger *slog.Logger) System {
	return &routes{
		logger: logger.With("system", "routes"),
	}
}

func (r *routes) Groups() []Group {
	return r.groups
}

func (r *routes) Routes() []Route {
	return r.routes
}

func (r *routes) RegisterRoute(route Route) {
	r.routes = append(r.routes, route)
}

func (r *routes) RegisterGroup(group Group) {
	r.groups = append(r.groups, group)
}

// Build registers every route on a ServeMux using method-qualified patterns.
func (r *routes) Build() http.Handler {
	mux := http.NewServeMux()

	for _, route := range r.routes {
		r.handle(mux, route.Method, route.Pattern, route.Handler)
	}
	for _, group := range r.groups {
		r.registerGroup(mux, "", group)
	}

	return mux
}

func (r *routes) registerGroup(mux *http.ServeMux, parentPrefix string, group Group) {
	prefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		r.handle(mux, route.Method, prefix+route.Pattern, route.Handler)
	}
	for _, child := range group.Children {
		r.registerGroup(mux, prefix, child)
	}
}

func (r *routes) handle(mux *http.ServeMux, method, pattern string, handler http.HandlerFunc) {
	r.logger.Debug("route registered", "method", method, "pattern", pattern)
	mux.HandleFunc(method+" "+pattern, handler)
}
