package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrms-backend/internal/chat"
	"hrms-backend/internal/db"
	"hrms-backend/internal/handlers"
	"hrms-backend/internal/logging"
	"hrms-backend/internal/models"
	"hrms-backend/internal/services"
	"hrms-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func Run() {
	// Load Env
	if err := utils.LoadEnv(); err != nil {
		logging.Warn().Msg(".env file not found")
	}

	logging.Init(logging.Config{
		Level:  utils.GetEnv("LOG_LEVEL", "info"),
		Format: utils.GetEnv("LOG_FORMAT", "console"),
	})
	log := logging.Component("app")

	// Init DB
	connString := utils.GetEnv("DATABASE_URL", "")
	if connString == "" {
		// Fallback to individual vars
		connString = "postgres://" + utils.GetEnv("POSTGRES_USER", "postgres") + ":" +
			utils.GetEnv("POSTGRES_PASSWORD", "postgres") + "@" +
			utils.GetEnv("POSTGRES_HOST", "localhost") + ":" +
			utils.GetEnv("POSTGRES_PORT", "5432") + "/" +
			utils.GetEnv("POSTGRES_DB", "hrmsdb") + "?sslmode=disable"
	}

	if err := db.InitDB(connString); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.CloseDB()

	if err := db.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate schema")
	}

	// Chat core state
	handlers.InitChatState(
		utils.GetEnvDuration("TYPING_IDLE", chat.DefaultTypingIdle),
		utils.GetEnvDuration("PRESENCE_STALENESS", chat.DefaultStaleness),
	)

	// Services
	userService := services.NewUserService()
	chatService := services.NewChatService()
	attendanceService := services.NewAttendanceService()
	attendanceService.LateCutoffMinutes = utils.GetEnvInt("LATE_CUTOFF_MINUTES", attendanceService.LateCutoffMinutes)
	leaveService := services.NewLeaveService()
	salaryService := services.NewSalaryService(userService, attendanceService)

	// Fiber App
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// Ensure upload dir exists and serve uploaded files
	uploadDir := utils.GetEnv("UPLOAD_DIR", "uploads")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		log.Warn().Err(err).Msg("failed to create upload dir")
	}
	app.Static("/uploads", uploadDir)

	// Routes
	api := app.Group("/api")

	// Public Routes
	api.Post("/register", func(c *fiber.Ctx) error {
		var req models.RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
		}
		if req.Username == "" || req.Password == "" {
			return c.Status(400).JSON(fiber.Map{"error": "username and password required"})
		}
		emp, err := userService.Register(c.Context(), req)
		if err != nil {
			if errors.Is(err, services.ErrUserExists) {
				return c.Status(400).JSON(fiber.Map{"error": "username already exists"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(emp)
	})

	api.Post("/login", func(c *fiber.Ctx) error {
		var req models.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
		}
		res, err := userService.Login(c.Context(), req)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(res)
	})

	// Refresh token endpoint
	api.Post("/refresh", func(c *fiber.Ctx) error {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
		}
		if body.RefreshToken == "" {
			return c.Status(400).JSON(fiber.Map{"error": "refresh_token required"})
		}

		claims, err := services.ValidateRefreshToken(body.RefreshToken)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid refresh token"})
		}

		userIDf, ok := claims["user_id"].(float64)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token claims"})
		}
		username, ok := claims["username"].(string)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token claims"})
		}

		userID := int(userIDf)

		access, err := services.GenerateJWT(userID, username)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to generate access token"})
		}
		refresh, err := services.GenerateRefreshToken(userID, username)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to generate refresh token"})
		}

		return c.JSON(fiber.Map{
			"access_token":  access,
			"refresh_token": refresh,
		})
	})

	// Protected Routes
	protected := api.Group("/")
	protected.Use(handlers.AuthMiddleware)

	// Chat Routes
	protected.Post("/conversations", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		var req models.CreateConversationRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
		}
		if req.RecipientID == 0 {
			return c.Status(400).JSON(fiber.Map{"error": "Recipient ID required"})
		}
		if req.RecipientID == userID {
			return c.Status(400).JSON(fiber.Map{"error": "cannot start a conversation with yourself"})
		}

		res, err := chatService.GetOrCreateConversation(c.Context(), userID, req.RecipientID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(res)
	})

	// Employee directory with live presence per user
	protected.Get("/users", func(c *fiber.Ctx) error {
		authUserID := c.Locals("user_id").(int)

		employees, err := userService.ListEmployees(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to fetch users"})
		}

		resp := make([]fiber.Map, 0, len(employees))
		for _, emp := range employees {
			if emp.ID == authUserID {
				continue
			}
			entry := fiber.Map{
				"id":          emp.ID,
				"username":    emp.Username,
				"first_name":  emp.FirstName,
				"last_name":   emp.LastName,
				"department":  emp.Department,
				"designation": emp.Designation,
				"created_at":  emp.CreatedAt,
			}
			userKey := handlers.UserKey(emp.ID)
			if handlers.Presence.Online(userKey) {
				entry["status"] = "online"
			} else {
				entry["status"] = "offline"
				if last, ok := handlers.Presence.LastActive(userKey); ok {
					entry["last_seen"] = chat.FormatLastSeen(last, time.Now())
				}
			}
			resp = append(resp, entry)
		}

		return c.JSON(resp)
	})

	// Profile endpoints
	protected.Get("/profile", handlers.GetProfileHandler(userService))
	protected.Put("/profile", handlers.UpdateProfileHandler(userService))

	// Media for image/video messages
	protected.Post("/uploads", handlers.UploadAttachmentHandler())

	// Attendance
	protected.Post("/attendance/punch-in", handlers.PunchInHandler(attendanceService))
	protected.Post("/attendance/punch-out", handlers.PunchOutHandler(attendanceService))
	protected.Get("/attendance", handlers.MonthlyAttendanceHandler(attendanceService))

	// Leave
	protected.Post("/leave", handlers.RequestLeaveHandler(leaveService))
	protected.Get("/leave", handlers.ListLeaveHandler(leaveService))
	protected.Get("/leave/pending", handlers.ListPendingLeaveHandler(leaveService, userService))
	protected.Put("/leave/:id", handlers.DecideLeaveHandler(leaveService, userService))

	// Salary
	protected.Get("/salary/slip", handlers.SalarySlipHandler(salaryService))

	// Health Check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// WebSocket Route
	// Note: Middleware order matters. AuthMiddleware checks token.
	// WSUpgradeMiddleware checks if it's a WS request.
	app.Use("/ws", handlers.WSUpgradeMiddleware)
	app.Use("/ws", handlers.AuthMiddleware)
	app.Get("/ws", handlers.WebSocketHandler(chatService))

	// Start Server
	port := utils.GetEnv("PORT", "3001")
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	// Graceful Shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c // Block until signal
	log.Info().Msg("gracefully shutting down")
	_ = app.Shutdown()
	log.Info().Msg("server shutdown complete")
}
