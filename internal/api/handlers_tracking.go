package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ronospace/flowiq/internal/services"
)

type dayEntryPayload struct {
	Symptoms      []string `json:"symptoms"`
	MoodScore     *int     `json:"mood_score"`
	FlowIntensity *int     `json:"flow_intensity"`
	Notes         string   `json:"notes"`
}

type wearablePayload struct {
	Steps                *int     `json:"steps"`
	SleepHours           *float64 `json:"sleep_hours"`
	RestingHeartRate     *float64 `json:"resting_heart_rate"`
	HeartRateVariability *float64 `json:"heart_rate_variability"`
	BodyTemperature      *float64 `json:"body_temperature"`
	BloodOxygen          *float64 `json:"blood_oxygen"`
}

type periodStartPayload struct {
	Date string `json:"date"`
}

// UpsertEntry writes the journal for one day, replacing whatever the day
// previously held.
func (handler *Handler) UpsertEntry(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	location := services.UserLocation(*user)

	day, err := parseDayParam(c.Params("date"), location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}

	payload := dayEntryPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	entry, err := handler.tracking.UpsertDailyEntry(user.ID, day, services.DailyEntryInput{
		Symptoms:      payload.Symptoms,
		MoodScore:     payload.MoodScore,
		FlowIntensity: payload.FlowIntensity,
		Notes:         payload.Notes,
	}, location)
	switch {
	case err == nil:
		return c.JSON(entry)
	case errors.Is(err, services.ErrInvalidMoodScore):
		return apiError(c, fiber.StatusBadRequest, "mood score must be between 1 and 10")
	case errors.Is(err, services.ErrInvalidFlowIntensity):
		return apiError(c, fiber.StatusBadRequest, "flow intensity must be between 0 and 3")
	default:
		handler.logger.WithError(err).Warn("day entry save failed")
		return apiError(c, fiber.StatusInternalServerError, "failed to save day")
	}
}

// DeleteEntry clears the journal for one day.
func (handler *Handler) DeleteEntry(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	location := services.UserLocation(*user)

	day, err := parseDayParam(c.Params("date"), location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}

	if err := handler.tracking.DeleteDailyEntry(user.ID, day, location); err != nil {
		handler.logger.WithError(err).Warn("day entry delete failed")
		return apiError(c, fiber.StatusInternalServerError, "failed to delete day")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpsertWearable writes the device summary for one day.
func (handler *Handler) UpsertWearable(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	location := services.UserLocation(*user)

	day, err := parseDayParam(c.Params("date"), location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}

	payload := wearablePayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	summary, err := handler.tracking.UpsertWearableSummary(user.ID, day, services.WearableSummaryInput{
		Steps:                payload.Steps,
		SleepHours:           payload.SleepHours,
		RestingHeartRate:     payload.RestingHeartRate,
		HeartRateVariability: payload.HeartRateVariability,
		BodyTemperature:      payload.BodyTemperature,
		BloodOxygen:          payload.BloodOxygen,
	}, location)
	switch {
	case err == nil:
		return c.JSON(summary)
	case errors.Is(err, services.ErrInvalidWearableMetric):
		return apiError(c, fiber.StatusBadRequest, err.Error())
	default:
		handler.logger.WithError(err).Warn("wearable save failed")
		return apiError(c, fiber.StatusInternalServerError, "failed to save wearable summary")
	}
}

// StartPeriod logs the first day of bleeding. Reporting the same day twice
// is a no-op; a day before the open cycle's start is rejected.
func (handler *Handler) StartPeriod(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	location := services.UserLocation(*user)

	payload := periodStartPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	day, err := parseDayParam(payload.Date, location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}

	record, err := handler.tracking.StartPeriod(user.ID, day, location)
	switch {
	case err == nil:
		return c.JSON(record)
	case errors.Is(err, services.ErrPeriodStartOutOfOrder):
		return apiError(c, fiber.StatusConflict, "period start predates the current cycle")
	default:
		handler.logger.WithError(err).Warn("period start failed")
		return apiError(c, fiber.StatusInternalServerError, "failed to record period start")
	}
}
