package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ronospace/flowiq/internal/services"
)

var errDayParamEmpty = errors.New("day parameter is empty")

// parseDayParam reads a "2006-01-02" day string and normalizes it to
// midnight in the given location.
func parseDayParam(raw string, location *time.Location) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, errDayParamEmpty
	}
	parsed, err := time.ParseInLocation("2006-01-02", trimmed, location)
	if err != nil {
		return time.Time{}, err
	}
	return services.DateAtLocation(parsed, location), nil
}

// parseRangeQuery reads the optional from/to query bounds. A zero status
// means the range is usable.
func parseRangeQuery(c *fiber.Ctx, location *time.Location) (*time.Time, *time.Time, int, string) {
	from, to, err := services.ParseDateRange(c.Query("from"), c.Query("to"), location)
	switch {
	case err == nil:
		return from, to, 0, ""
	case errors.Is(err, services.ErrRangeInverted):
		return nil, nil, fiber.StatusBadRequest, "from date is after to date"
	case errors.Is(err, services.ErrFromDateInvalid):
		return nil, nil, fiber.StatusBadRequest, "invalid from date"
	default:
		return nil, nil, fiber.StatusBadRequest, "invalid to date"
	}
}

// parseAsOfQuery reads the optional as_of query day. A zero time means "now"
// and the services fill it in.
func parseAsOfQuery(c *fiber.Ctx, location *time.Location) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query("as_of"))
	if raw == "" {
		return time.Time{}, true
	}
	parsed, err := parseDayParam(raw, location)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
