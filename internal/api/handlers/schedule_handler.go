package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/cascade-scheduler/internal/queue"
	"github.com/maheshrc27/cascade-scheduler/internal/service"
	"github.com/maheshrc27/cascade-scheduler/internal/transfer"
)

type ScheduleHandler struct {
	s           service.ScheduleService
	AsynqClient queue.Enqueuer
}

func NewScheduleHandler(s service.ScheduleService, asynqClient queue.Enqueuer) *ScheduleHandler {
	return &ScheduleHandler{s: s, AsynqClient: asynqClient}
}

func (h *ScheduleHandler) Next(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.s.Preview(c.Context()))
}

func (h *ScheduleHandler) Schedule(c *fiber.Ctx) error {
	var req transfer.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	result, err := h.s.Schedule(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNoPlatforms) || errors.Is(err, service.ErrEmptyText) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to schedule post",
		})
	}

	// Submissions are sent right away; the posting service holds them until
	// their publication time.
	failed := 0
	for _, sub := range result.Submissions {
		if err := queue.EnqueueSubmission(h.AsynqClient, queue.SubmitPostPayload{SubmissionID: sub.ID}, 0); err != nil {
			slog.Error("error enqueueing submission", "submission_id", sub.ID, "error", err)
			failed++
		}
	}
	slog.Info("schedule request handled", "user_id", GetUserID(c), "batch_id", result.BatchID, "queued", len(result.Submissions)-failed)
	if failed > 0 {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"error":  "Some submissions could not be queued yet and will be retried",
			"result": result,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *ScheduleHandler) ListSubmissions(c *fiber.Ctx) error {
	subs, err := h.s.ListSubmissions(c.Context(), c.QueryInt("limit", 50))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list submissions",
		})
	}

	return c.Status(fiber.StatusOK).JSON(subs)
}
