package api

import "github.com/gofiber/fiber/v2"

// AuthRequired gates the JSON API. A missing or bad bearer token
// short-circuits with 401 before any handler runs.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	user, err := handler.authenticateRequest(c)
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	c.Locals(contextUserKey, user)
	return c.Next()
}
