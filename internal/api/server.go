// Package api exposes the statement engine over HTTP.
package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/maherduit/statement-engine/internal/config"
	"github.com/maherduit/statement-engine/internal/engine"
	"github.com/maherduit/statement-engine/internal/logging"
)

// Version is reported by the root and health endpoints.
const Version = "2.0.0"

// Server holds the HTTP handlers for the API.
type Server struct {
	app    *fiber.App
	engine *engine.Engine
	cfg    *config.Config
	log    logging.Logger
}

// NewServer wires routes and middleware around an engine.
func NewServer(eng *engine.Engine, cfg *config.Config, log logging.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.Discard()
	}

	s := &Server{engine: eng, cfg: cfg, log: log}
	s.app = fiber.New(fiber.Config{
		AppName:               "statement-engine",
		BodyLimit:             cfg.Server.BodyLimitMB << 20,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	s.app.Get("/", s.HandleRoot)
	s.app.Get("/health", s.HandleHealth)
	s.app.Post("/process", s.HandleProcess)
	s.app.Post("/process-text", s.HandleProcessText)
	s.app.Post("/process-batch", s.HandleProcessBatch)

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the configured port until Shutdown.
func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.log.Info("starting HTTP server", logging.F("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.log.WithError(err).Error("request failed", logging.F("path", c.Path()))
	}
	return c.Status(code).JSON(ErrorResponse{Success: false, Message: err.Error()})
}
