// utils/http.go - Fiber response helpers
package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// JSONError sends the error envelope the web client reads.
func JSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// QueryInt reads an integer query parameter, returning def when absent or malformed.
func QueryInt(c *fiber.Ctx, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
