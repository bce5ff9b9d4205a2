// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
)

// NewHealthCheck creates a Fiber healthcheck middleware with Kubernetes-style endpoints.
//
// Endpoints:
//   - GET /livez  - Liveness probe (app is running)
//   - GET /readyz - Readiness probe (app is ready to serve)
//
// ready decides readiness; typically it checks that at least one
// upstream source answers or that the cache backend is reachable.
// This middleware should be registered BEFORE other routes.
func NewHealthCheck(ready func(*fiber.Ctx) bool) fiber.Handler {
	if ready == nil {
		ready = func(_ *fiber.Ctx) bool { return true }
	}

	return healthcheck.New(healthcheck.Config{
		// Liveness probe - is the application running?
		LivenessEndpoint: "/livez",
		LivenessProbe: func(_ *fiber.Ctx) bool {
			return true // Always return true if the app is running
		},

		// Readiness probe - is the application ready to serve traffic?
		ReadinessEndpoint: "/readyz",
		ReadinessProbe:    ready,
	})
}
