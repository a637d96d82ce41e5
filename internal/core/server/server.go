package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cargo-pipeline/internal/core/auth"
	"cargo-pipeline/internal/core/config"
	"cargo-pipeline/internal/core/logger"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"

	_ "cargo-pipeline/docs/swagger"
)

// Server holds the Fiber application and configuration.
type Server struct {
	// App is the main Fiber application instance.
	App *fiber.App
	// API hands out route groups that require a bearer token.
	API *Protected
	// cfg holds the application configuration.
	cfg *config.AppConfig
}

// New creates a new Server instance with configured middleware. Routes mounted
// through API require a bearer token accepted by verifier.
func New(cfg *config.AppConfig, verifier *auth.Verifier) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "cargo-pipeline",
		ErrorHandler:          errorHandler,
	})

	app.Use(requestid.New(requestid.Config{
		Header: "X-Ray-ID",
	}))

	app.Use(recover.New())

	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger.Get(),
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	return &Server{
		App: app,
		API: NewProtected(app, verifier.Middleware()),
		cfg: cfg,
	}
}

// Protected mounts route groups behind an auth middleware. The middleware is
// attached per prefix, so a path outside every mounted prefix is a 404 rather
// than a 401.
type Protected struct {
	mu     sync.Mutex
	router fiber.Router
	auth   fiber.Handler
	groups map[string]fiber.Router
}

// NewProtected creates a Protected mounting groups on router.
func NewProtected(router fiber.Router, auth fiber.Handler) *Protected {
	return &Protected{
		router: router,
		auth:   auth,
		groups: make(map[string]fiber.Router),
	}
}

// Group returns the protected router for prefix. Repeated calls with the same
// prefix share one group, so the middleware runs once per request.
func (p *Protected) Group(prefix string) fiber.Router {
	p.mu.Lock()
	defer p.mu.Unlock()

	if g, ok := p.groups[prefix]; ok {
		return g
	}
	g := p.router.Group(prefix, p.auth)
	p.groups[prefix] = g
	return g
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	logger.Get().Info("Starting server", zap.String("address", addr))
	return s.App.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}

// errorHandler renders errors that escape handlers, such as unknown routes or
// recovered panics.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		msg = fe.Message
	} else {
		logger.Get().Error("Unhandled error",
			zap.String("path", c.Path()),
			zap.String("ray_id", RayID(c)),
			zap.Error(err),
		)
	}

	return c.Status(status).JSON(ErrorResponse{
		Message: msg,
		RayID:   RayID(c),
	})
}
