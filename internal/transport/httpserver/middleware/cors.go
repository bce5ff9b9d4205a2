package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS returns the cross-origin middleware for the API. The catalog is
// read-only public data, so the default permissive policy is fine.
func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowMethods: "GET,HEAD,OPTIONS",
	})
}
