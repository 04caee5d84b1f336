// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"crypto/subtle"
	"slices"

	"github.com/amirphl/trip-to-travel/app/dto"
	"github.com/amirphl/trip-to-travel/config"
	"github.com/gofiber/fiber/v3"
)

// SecurityMiddleware rejects blacklisted clients and, when configured, requests without a known API key
type SecurityMiddleware struct {
	cfg config.SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware
func NewSecurityMiddleware(cfg config.SecurityConfig) *SecurityMiddleware {
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "X-API-Key"
	}
	return &SecurityMiddleware{cfg: cfg}
}

// BlockIPs denies requests from blacklisted addresses
func (m *SecurityMiddleware) BlockIPs() fiber.Handler {
	return func(c fiber.Ctx) error {
		if slices.Contains(m.cfg.IPBlacklist, c.IP()) {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "Access denied from this IP address",
				Error: dto.ErrorDetail{
					Code: "ACCESS_DENIED",
				},
			})
		}
		return c.Next()
	}
}

// RequireAPIKey checks the API key header when keys are required.
// Paths listed in skip are always let through.
func (m *SecurityMiddleware) RequireAPIKey(skip ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if !m.cfg.RequireAPIKey || slices.Contains(skip, c.Path()) {
			return c.Next()
		}

		apiKey := c.Get(m.cfg.APIKeyHeader)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "API key is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_API_KEY",
				},
			})
		}
		if !m.validKey(apiKey) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid API key",
				Error: dto.ErrorDetail{
					Code: "INVALID_API_KEY",
				},
			})
		}
		return c.Next()
	}
}

func (m *SecurityMiddleware) validKey(apiKey string) bool {
	for _, key := range m.cfg.AllowedAPIKeys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			return true
		}
	}
	return false
}
