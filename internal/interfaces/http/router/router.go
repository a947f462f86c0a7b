// Package router wires handlers into the gin engine under a versioned
// API prefix.
package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar registers a handler's routes on a router group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router assembles the API route tree
type Router struct {
	engine     *gin.Engine
	version    string
	registrars []RouteRegistrar
}

// New creates a Router for the given engine
func New(engine *gin.Engine) *Router {
	return &Router{
		engine:  engine,
		version: "v1",
	}
}

// WithAPIVersion overrides the API version segment
func (r *Router) WithAPIVersion(version string) *Router {
	r.version = version
	return r
}

// Register adds handlers to be mounted on Setup
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup mounts all registered handlers under /api/<version> and returns
// the group for any further route additions.
func (r *Router) Setup() *gin.RouterGroup {
	api := r.engine.Group("/api/" + r.version)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return api
}
