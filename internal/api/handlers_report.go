package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ronospace/flowiq/internal/engine"
	"github.com/ronospace/flowiq/internal/services"
)

// GetReport returns the full forecast report for the authenticated user.
// The optional as_of query pins the report to a specific day.
func (handler *Handler) GetReport(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	location := services.UserLocation(*user)

	asOf, ok := parseAsOfQuery(c, location)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid as_of date")
	}

	report, err := handler.insights.GenerateReport(user.ID, asOf)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return apiError(c, fiber.StatusNotFound, "user not found")
		}
		handler.logger.WithError(err).Warn("report build failed")
		return apiError(c, fiber.StatusInternalServerError, "failed to build report")
	}
	return c.JSON(report)
}

// GetPatterns returns detected mood, symptom and cycle patterns, optionally
// restricted to a from/to day range.
func (handler *Handler) GetPatterns(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	location := services.UserLocation(*user)

	from, to, status, message := parseRangeQuery(c, location)
	if status != 0 {
		return apiError(c, status, message)
	}

	patterns, err := handler.insights.AnalyzePatterns(user.ID, from, to)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			return apiError(c, fiber.StatusBadRequest, "from date is after to date")
		}
		handler.logger.WithError(err).Warn("pattern analysis failed")
		return apiError(c, fiber.StatusInternalServerError, "failed to analyze patterns")
	}
	if patterns == nil {
		patterns = []engine.DetectedPattern{}
	}
	return c.JSON(fiber.Map{"patterns": patterns})
}

// GetConditionRisk screens one condition by its identifier.
func (handler *Handler) GetConditionRisk(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	location := services.UserLocation(*user)

	asOf, ok := parseAsOfQuery(c, location)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid as_of date")
	}

	assessment, err := handler.insights.AssessConditionRisk(user.ID, c.Params("condition"), asOf)
	if err != nil {
		if errors.Is(err, services.ErrUnknownCondition) {
			return apiError(c, fiber.StatusNotFound, "unknown condition")
		}
		handler.logger.WithError(err).Warn("condition screen failed")
		return apiError(c, fiber.StatusInternalServerError, "failed to assess condition")
	}
	return c.JSON(assessment)
}
