package handlers

import (
	"net/http"

	"hrms-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

// GetProfileHandler returns the authenticated employee's profile
func GetProfileHandler(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)
		emp, err := userService.GetProfile(c.Context(), userID)
		if err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(emp)
	}
}

// UpdateProfileHandler updates name, department and designation for the
// authenticated employee
func UpdateProfileHandler(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		var body struct {
			FirstName   *string `json:"first_name"`
			LastName    *string `json:"last_name"`
			Department  *string `json:"department"`
			Designation *string `json:"designation"`
		}

		if err := c.BodyParser(&body); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}

		updated, err := userService.UpdateProfile(c.Context(), userID,
			body.FirstName, body.LastName, body.Department, body.Designation)
		if err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(updated)
	}
}
