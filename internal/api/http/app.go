package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// bodyLimitSlack leaves room for multipart framing around the largest allowed upload.
const bodyLimitSlack = 1 << 20

// AppConfig configures the fiber application.
type AppConfig struct {
	Name           string
	MaxUploadBytes int64
	ReadTimeout    time.Duration
}

// NewApp builds the fiber application with the shared error handler.
func NewApp(cfg AppConfig) *fiber.App {
	bodyLimit := fiber.DefaultBodyLimit
	if limit := cfg.MaxUploadBytes + bodyLimitSlack; limit > int64(bodyLimit) {
		bodyLimit = int(limit)
	}
	return fiber.New(fiber.Config{
		AppName:               cfg.Name,
		BodyLimit:             bodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
	})
}
