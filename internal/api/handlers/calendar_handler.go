package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/cascade-scheduler/internal/service"
)

type CalendarHandler struct {
	s     service.CalendarService
	clock service.Clock
}

func NewCalendarHandler(s service.CalendarService, clock service.Clock) *CalendarHandler {
	return &CalendarHandler{s: s, clock: clock}
}

func (h *CalendarHandler) ListPosts(c *fiber.Ctx) error {
	start, end := dateRange(c, h.s.Location(), h.clock.Now(), 7)

	result, err := h.s.GetScheduledPosts(c.Context(), start, end)
	if err != nil {
		return rangeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"posts":         result.Posts,
		"source":        result.Source(),
		"failed_chunks": result.FailedChunks,
	})
}

func (h *CalendarHandler) Topics(c *fiber.Ctx) error {
	start, end := dateRange(c, h.s.Location(), h.clock.Now(), 7)

	result, err := h.s.GetScheduledPosts(c.Context(), start, end)
	if err != nil {
		return rangeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"topics": service.GroupByDay(result.Posts, h.s.Location()),
		"source": result.Source(),
	})
}

func (h *CalendarHandler) Analysis(c *fiber.Ctx) error {
	days := c.QueryInt("days", 14)
	if days < 0 || days > service.MaxRangeDays {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("days must be between 0 and %d", service.MaxRangeDays),
		})
	}

	return c.Status(fiber.StatusOK).JSON(h.s.AnalyzeCalendarForPlanning(c.Context(), days))
}

func rangeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrInvalidDateRange) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	slog.Error(err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Unable to read calendar",
	})
}
