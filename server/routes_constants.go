package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Token routes
	RouteLogin        = "/login"
	RouteRefreshToken = "/refresh-token"

	// Resource routes (bearer access token required)
	RouteProtected = "/protected"
	RouteUsers     = "/users"
	RouteUser      = "/users/{id}"

	// Public infrastructure
	RouteWellKnownJWKS = "/.well-known/jwks.json"
	RouteMetrics       = "/metrics"
	RouteHealth        = "/health"
)
