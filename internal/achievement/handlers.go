package achievement

import (
	"time"

	"github.com/eirki/gargbot-3000-sub000/internal/db"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, engine *Engine, q db.Querier) {
	r.Get("/:journeyID", func(c *fiber.Ctx) error {
		date := time.Now().UTC()
		if s := c.Query("date"); s != "" {
			parsed, err := time.Parse("2006-01-02", s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
			}
			date = parsed
		}
		standings, err := engine.AllAtDate(c.Context(), q, c.Params("journeyID"), date)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(standings)
	})
}
