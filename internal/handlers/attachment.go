package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hrms-backend/internal/models"
	"hrms-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// attachmentTypes maps file extensions to the message type the upload can be
// sent as.
var attachmentTypes = map[string]string{
	".jpg": "image", ".jpeg": "image", ".png": "image", ".gif": "image", ".webp": "image",
	".mp4": "video", ".webm": "video", ".mov": "video",
}

// BuildAttachmentURL constructs an absolute URL for an uploaded file
func BuildAttachmentURL(c *fiber.Ctx, filename string) string {
	baseURL := utils.GetEnv("BASE_URL", "")
	if baseURL != "" {
		return fmt.Sprintf("%s/uploads/%s", baseURL, filename)
	}

	protocol := "http"
	if c.Protocol() == "https" || c.Get("X-Forwarded-Proto") == "https" {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/uploads/%s", protocol, c.Hostname(), filename)
}

// UploadAttachmentHandler stores a media file and returns the URL to use as
// the content of an image or video message (field name: "file")
func UploadAttachmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
		}

		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		msgType, ok := attachmentTypes[ext]
		if !ok {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "unsupported file type"})
		}

		uploadDir := utils.GetEnv("UPLOAD_DIR", "uploads")
		if err := os.MkdirAll(uploadDir, 0755); err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create upload dir"})
		}

		// Unique filename preserving extension
		filename := fmt.Sprintf("%d_%d%s", userID, time.Now().UnixNano(), ext)
		destPath := filepath.Join(uploadDir, filename)

		if err := c.SaveFile(fileHeader, destPath); err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save file"})
		}

		return c.Status(http.StatusCreated).JSON(models.Attachment{
			Filename: filename,
			URL:      BuildAttachmentURL(c, filename),
			Type:     msgType,
		})
	}
}
