package handlers

import (
	"errors"
	"net/http"
	"time"

	"hrms-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PunchInHandler opens today's attendance record for the authenticated
// employee
func PunchInHandler(attendance *services.AttendanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		rec, err := attendance.PunchIn(c.Context(), userID, time.Now().UTC())
		if err != nil {
			if errors.Is(err, services.ErrAlreadyPunchedIn) {
				return c.Status(http.StatusConflict).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(http.StatusCreated).JSON(rec)
	}
}

// PunchOutHandler closes today's attendance record
func PunchOutHandler(attendance *services.AttendanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		rec, err := attendance.PunchOut(c.Context(), userID, time.Now().UTC())
		if err != nil {
			switch {
			case errors.Is(err, services.ErrNotPunchedIn):
				return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			case errors.Is(err, services.ErrAlreadyPunchedOut):
				return c.Status(http.StatusConflict).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(rec)
	}
}

// MonthlyAttendanceHandler lists the employee's records for ?year=&month=
// (defaults to the current month)
func MonthlyAttendanceHandler(attendance *services.AttendanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		now := time.Now().UTC()
		year := c.QueryInt("year", now.Year())
		month := c.QueryInt("month", int(now.Month()))
		if month < 1 || month > 12 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "month must be 1-12"})
		}

		records, err := attendance.Monthly(c.Context(), userID, year, month)
		if err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(records)
	}
}
