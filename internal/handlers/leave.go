package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"hrms-backend/internal/models"
	"hrms-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequestLeaveHandler files a leave request for the authenticated employee
func RequestLeaveHandler(leave *services.LeaveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		var req models.CreateLeaveRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.LeaveType == "" || req.From == "" || req.To == "" {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "leave_type, from and to are required"})
		}

		lr, err := leave.Request(c.Context(), userID, req)
		if err != nil {
			if errors.Is(err, services.ErrInvalidLeaveRange) {
				return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(http.StatusCreated).JSON(lr)
	}
}

// ListLeaveHandler lists the employee's own requests
func ListLeaveHandler(leave *services.LeaveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		requests, err := leave.ListForEmployee(c.Context(), userID)
		if err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(requests)
	}
}

// ListPendingLeaveHandler lists undecided requests, admin only
func ListPendingLeaveHandler(leave *services.LeaveService, users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := requireAdmin(c, users); err != nil {
			return err
		}

		requests, err := leave.ListPending(c.Context())
		if err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(requests)
	}
}

// DecideLeaveHandler approves or rejects a request, admin only
func DecideLeaveHandler(leave *services.LeaveService, users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(int)
		if err := requireAdmin(c, users); err != nil {
			return err
		}

		requestID, err := strconv.Atoi(c.Params("id"))
		if err != nil || requestID <= 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid leave request id"})
		}

		var body struct {
			Approve bool `json:"approve"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}

		lr, err := leave.Decide(c.Context(), requestID, adminID, body.Approve)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrLeaveNotFound):
				return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			case errors.Is(err, services.ErrLeaveDecided):
				return c.Status(http.StatusConflict).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		// Tell the employee right away if they are online.
		Manager.SendToUser(lr.EmployeeID, models.WSMessage{
			Event:  "leave_decided",
			ID:     strconv.Itoa(lr.ID),
			Status: lr.Status,
		})

		return c.JSON(lr)
	}
}

func requireAdmin(c *fiber.Ctx, users *services.UserService) error {
	userID := c.Locals("user_id").(int)
	emp, err := users.GetProfile(c.Context(), userID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !emp.IsAdmin {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "admin only"})
	}
	return nil
}
