package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"studiopulse_go/config"
	"studiopulse_go/database"
	"studiopulse_go/database/seeders"
	"studiopulse_go/middleware"
	"studiopulse_go/routes"
	"studiopulse_go/services"
	"studiopulse_go/services/notifications"
	"studiopulse_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func init() {
	setupLogging()
	config.LoadConfig()
	database.Connect()

	if os.Getenv("SEED_DATA") == "true" {
		seeders.SeedAll()
	}
}

func main() {
	// WebSocket hub carries live notifications; everything else hangs off it
	wsHub := websocket.NewHub()
	go wsHub.Run()

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(middleware.LoggerMiddleware())

	// Wire notifications to the hub so schedulers and controllers share it
	notifications.SetDefaultWSHub(wsHub)
	notifService := notifications.NewService()
	stopNotif := make(chan struct{})
	if config.AppConfig.UseRedisNotifications {
		notifService.StartWorker(stopNotif)
	}

	// Periodic jobs: class reminders, membership expiry, log maintenance
	scheduler := services.NewScheduler()
	scheduler.Start()

	routes.SetupRoutes(app, wsHub)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "Route not found",
			"path":   c.Path(),
			"method": c.Method(),
		})
	})

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logrus.Info("Shutting down...")
		scheduler.Stop()
		close(stopNotif)
		if err := app.Shutdown(); err != nil {
			logrus.WithError(err).Error("Server shutdown failed")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":        config.AppConfig.Port,
		"environment": config.AppConfig.AppEnv,
	}).Info("StudioPulse API starting")

	if err := app.Listen(":" + config.AppConfig.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// setupLogging configures the logging system
func setupLogging() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetOutput(os.Stdout)
}

// customErrorHandler handles application errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	logrus.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Path(),
		"method": c.Method(),
		"ip":     c.IP(),
		"status": code,
	}).Error("Request error")

	return c.Status(code).JSON(fiber.Map{
		"error":  message,
		"code":   code,
		"path":   c.Path(),
		"method": c.Method(),
	})
}
