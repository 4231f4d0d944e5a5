package update

import (
	"errors"
	"time"

	"github.com/eirki/gargbot-3000-sub000/internal/journey"

	"github.com/gofiber/fiber/v2"
)

type runRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// RegisterRoutes exposes the scheduler entry point. The cron collaborator
// POSTs here once a day; running it again for an already-recorded day is a
// no-op.
func RegisterRoutes(r fiber.Router, runner *Runner, authMiddleware fiber.Handler) {
	r.Post("/run", authMiddleware, func(c *fiber.Ctx) error {
		var req runRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		date := time.Now().UTC()
		if req.Date != "" {
			parsed, err := time.Parse("2006-01-02", req.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
			}
			date = parsed
		}

		messages, err := runner.RunPendingUpdates(c.Context(), date)
		if err != nil {
			if errors.Is(err, ErrUpdateRunning) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			if errors.Is(err, journey.ErrMultipleOngoing) {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"processed_days": len(messages),
			"messages":       messages,
		})
	})
}
