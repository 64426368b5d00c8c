package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/cascade-scheduler/internal/service"
)

func GetUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

// dateRange reads ?start=&end= and defaults to [today, today+days].
func dateRange(c *fiber.Ctx, loc *time.Location, now time.Time, days int) (string, string) {
	today := service.StartOfDay(now, loc)
	start := c.Query("start", service.FormatDate(today))
	end := c.Query("end", service.FormatDate(service.AddDays(today, days)))
	return start, end
}
