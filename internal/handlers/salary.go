package handlers

import (
	"net/http"
	"time"

	"hrms-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SalarySlipHandler computes the employee's slip for ?year=&month=
// (defaults to the current month)
func SalarySlipHandler(salary *services.SalaryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		now := time.Now().UTC()
		year := c.QueryInt("year", now.Year())
		month := c.QueryInt("month", int(now.Month()))
		if month < 1 || month > 12 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "month must be 1-12"})
		}

		slip, err := salary.Slip(c.Context(), userID, year, month)
		if err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(slip)
	}
}
