package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

func buildExportFilename(now time.Time, extension string) string {
	return fmt.Sprintf("flowiq-export-%s.%s", now.Format("2006-01-02"), extension)
}

func setExportAttachmentHeaders(c *fiber.Ctx, contentType string, filename string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
}
