package api

import (
	"bytes"
	"encoding/csv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ronospace/flowiq/internal/services"
)

// ExportCSV sends the day-by-day journal join as a CSV attachment.
func (handler *Handler) ExportCSV(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	location := services.UserLocation(*user)

	from, to, status, message := parseRangeQuery(c, location)
	if status != 0 {
		return apiError(c, status, message)
	}

	rows, err := handler.exports.BuildCSVRows(user.ID, from, to)
	if err != nil {
		handler.logger.WithError(err).Warn("csv export failed")
		return apiError(c, fiber.StatusInternalServerError, "failed to build export")
	}

	output := &bytes.Buffer{}
	writer := csv.NewWriter(output)
	if err := writer.Write(services.ExportCSVHeaders); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to build export")
	}
	for _, row := range rows {
		if err := writer.Write(row.Columns()); err != nil {
			return apiError(c, fiber.StatusInternalServerError, "failed to build export")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to build export")
	}

	setExportAttachmentHeaders(c, "text/csv", buildExportFilename(time.Now().In(location), "csv"))
	return c.Send(output.Bytes())
}

// ExportSummary reports what an export would cover without building one.
func (handler *Handler) ExportSummary(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	location := services.UserLocation(*user)

	from, to, status, message := parseRangeQuery(c, location)
	if status != 0 {
		return apiError(c, status, message)
	}

	summary, err := handler.exports.BuildSummary(user.ID, from, to)
	if err != nil {
		handler.logger.WithError(err).Warn("export summary failed")
		return apiError(c, fiber.StatusInternalServerError, "failed to build export summary")
	}
	return c.JSON(fiber.Map{
		"total_entries": summary.TotalEntries,
		"has_data":      summary.HasData,
		"date_from":     summary.DateFrom,
		"date_to":       summary.DateTo,
	})
}
