package journey

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type createRequest struct {
	Origin      string `json:"origin" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	GPX         string `json:"gpx" validate:"required"`
}

type startRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func RegisterRoutes(r fiber.Router, svc *Service, validate *validator.Validate, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req createRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		j, err := svc.CreateJourney(c.Context(), req.Origin, req.Destination, []byte(req.GPX))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(j)
	})

	r.Post("/:id/start", authMiddleware, func(c *fiber.Ctx) error {
		var req startRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		date := time.Now().UTC().Truncate(24 * time.Hour)
		if req.Date != "" {
			date, _ = time.Parse("2006-01-02", req.Date)
		}
		j, err := svc.StartJourney(c.Context(), c.Params("id"), date)
		if err != nil {
			if errors.Is(err, ErrOngoing) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(j)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		journeys, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(journeys)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		j, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "journey not found")
		}
		loc, hasLoc, err := svc.MostRecentLocation(c.Context(), j.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		resp := fiber.Map{"journey": j}
		if hasLoc {
			resp["position"] = loc
		}
		return c.JSON(resp)
	})
}
