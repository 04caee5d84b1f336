// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/amirphl/trip-to-travel/app/dto"
	"github.com/amirphl/trip-to-travel/app/handlers"
	"github.com/amirphl/trip-to-travel/app/middleware"
	"github.com/amirphl/trip-to-travel/config"
	"github.com/amirphl/trip-to-travel/logger"
	"github.com/amirphl/trip-to-travel/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cache"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	apiPrefix  = "/api/v1"
	healthPath = apiPrefix + "/health"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Journal   handlers.JournalHandlerInterface
	Photo     handlers.PhotoHandlerInterface
	Selection handlers.SelectionHandlerInterface
	Draft     handlers.DraftHandlerInterface
	Export    handlers.ExportHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	cfg      *config.ProductionConfig
	handlers Handlers
	security *middleware.SecurityMiddleware
	log      *logger.Logger
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, log *logger.Logger) Router {
	if log == nil {
		log = logger.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "Trip to Travel API",
		ServerHeader: "trip-to-travel",
		ErrorHandler: errorHandler(log),
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:      app,
		cfg:      cfg,
		handlers: h,
		security: middleware.NewSecurityMiddleware(cfg.Security),
		log:      log,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.log.Info("Setting up routes")

	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group(apiPrefix)

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)
	api.Get("/docs", r.getAPIDocumentation)

	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath
		},
	}))

	api.Get("/categories", r.handlers.Journal.ListCategories)

	journals := api.Group("/journals")
	journals.Post("/", r.handlers.Journal.CreateJournal)
	journals.Get("/", r.handlers.Journal.ListJournals)
	journals.Get("/:id", r.handlers.Journal.GetJournal)
	journals.Patch("/:id", r.handlers.Journal.UpdateJournal)
	journals.Put("/:id/intent", r.handlers.Journal.CaptureIntent)

	journals.Post("/:id/photos", r.handlers.Photo.IngestPhotos)
	journals.Get("/:id/photos", r.handlers.Photo.ListPhotos)
	journals.Delete("/:id/photos/:photo_id", r.handlers.Photo.RemovePhoto)
	journals.Put("/:id/photos/:photo_id/questionnaire", r.handlers.Photo.SaveQuestionnaire)

	selection := journals.Group("/:id/selection")
	selection.Post("/primary", r.handlers.Selection.SelectPrimary)
	selection.Post("/deactivate", r.handlers.Selection.DeactivatePhotos)
	selection.Post("/enrich", r.handlers.Selection.EnrichPhotos)
	selection.Post("/secondary", r.handlers.Selection.SelectSecondary)

	journals.Post("/:id/drafts", r.handlers.Draft.GenerateDrafts)
	journals.Put("/:id/photos/:photo_id/final-text", r.handlers.Draft.CorrectFinalText)

	journals.Post("/:id/export", r.handlers.Export.ExportPDF)
	journals.Get("/:id/export/url", r.handlers.Export.ExportDownloadURL)
	journals.Get("/:id/export/sheet", r.handlers.Export.ExportSheet)

	r.app.Use(r.notFoundHandler)

	r.log.Info("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000,
		ContentSecurityPolicy:     "default-src 'self'; img-src 'self' data: https:; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	maxAge := r.cfg.Security.CORSMaxAge
	if maxAge == 0 {
		maxAge = utils.CORSMaxAge
	}
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-Response-Time", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           maxAge,
	}))

	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// Uploaded images are already compressed
			return strings.HasPrefix(c.Get("Content-Type"), "image/") ||
				strings.HasPrefix(c.Get("Content-Type"), "multipart/")
		},
	}))

	r.app.Use(cache.New(cache.Config{
		Next: func(c fiber.Ctx) bool {
			return c.Method() != fiber.MethodGet || c.Path() != healthPath
		},
		Expiration:          10 * time.Second,
		DisableCacheControl: false,
	}))

	r.app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath
		},
	}))

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	r.app.Use(func(c fiber.Ctx) error {
		c.Set("X-Response-Time", utils.UTCNow().Format(time.RFC3339))
		return c.Next()
	})
	r.app.Use(r.security.BlockIPs())
	r.app.Use(r.security.RequireAPIKey(healthPath, r.cfg.Metrics.Path))

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			r.log.Error("panic recovered",
				"request_id", c.Locals("requestid"),
				"error", e,
				"path", c.Path(),
				"method", c.Method(),
				"ip", c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	r.log.Info("Starting server", "address", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   "1.0.0",
			"service":   "trip-to-travel-api",
		},
	})
}

// API documentation endpoint
func (r *FiberRouter) getAPIDocumentation(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "API documentation retrieved successfully",
		Data: fiber.Map{
			"title":       "Trip to Travel API Documentation",
			"version":     "1.0.0",
			"description": "Travel journal generation: photos in, illustrated PDF out",
			"endpoints":   GetRouteDocumentation(),
		},
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": c.Locals("requestid"),
			},
		},
	})
}

// errorHandler answers errors that escape handlers, such as body limit violations
func errorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "An internal server error occurred"
		errorCode := "INTERNAL_ERROR"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			if code < fiber.StatusInternalServerError {
				message = e.Message
				errorCode = "REQUEST_ERROR"
			}
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled error", "status", code, "error", err, "path", c.Path())
		}

		return c.Status(code).JSON(dto.APIResponse{
			Success: false,
			Message: message,
			Error: dto.ErrorDetail{
				Code: errorCode,
				Details: fiber.Map{
					"timestamp":  utils.UTCNow().Unix(),
					"request_id": c.Locals("requestid"),
				},
			},
		})
	}
}

// GetRouteDocumentation returns API documentation
func GetRouteDocumentation() []map[string]any {
	return []map[string]any{
		{"method": "GET", "path": "/api/v1/health", "description": "Health check endpoint"},
		{"method": "GET", "path": "/api/v1/categories", "description": "List purpose, audience, style and emotion categories"},
		{
			"method":      "POST",
			"path":        "/api/v1/journals",
			"description": "Create a journal entry",
			"parameters":  map[string]any{"style_category": "number (optional) - 1..3"},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/journals",
			"description": "List journals, newest first",
			"parameters": map[string]any{
				"limit":  "number (optional) - Query parameter 1..100 (default 20)",
				"offset": "number (optional) - Query parameter (default 0)",
			},
		},
		{"method": "GET", "path": "/api/v1/journals/:id", "description": "Journal detail with selections and photo counts"},
		{
			"method":      "PATCH",
			"path":        "/api/v1/journals/:id",
			"description": "Update the writing style",
			"parameters":  map[string]any{"style_category": "number (required) - 1..3"},
		},
		{
			"method":      "PUT",
			"path":        "/api/v1/journals/:id/intent",
			"description": "Replace who travelled and why",
			"parameters": map[string]any{
				"audiences": "number[] (required) - codes 1..6",
				"purposes":  "number[] (required) - codes 1..4",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/journals/:id/photos",
			"description": "Upload images",
			"parameters":  map[string]any{"files": "file[] (required) - multipart field"},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/journals/:id/photos",
			"description": "List photos in ingestion order",
			"parameters": map[string]any{
				"include_inactive": "bool (optional) - Query parameter",
				"signed":           "bool (optional) - Query parameter, attach 5 minute view URLs",
			},
		},
		{"method": "DELETE", "path": "/api/v1/journals/:id/photos/:photo_id", "description": "Deactivate a photo and delete its image"},
		{
			"method":      "POST",
			"path":        "/api/v1/journals/:id/selection/primary",
			"description": "Keep the top count photos by AI importance",
			"parameters":  map[string]any{"count": "number (required) - at least 1"},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/journals/:id/selection/deactivate",
			"description": "Deactivate the listed photos",
			"parameters":  map[string]any{"photo_ids": "number[] (required)"},
		},
		{"method": "POST", "path": "/api/v1/journals/:id/selection/enrich", "description": "Caption photos and extract time and place"},
		{
			"method":      "POST",
			"path":        "/api/v1/journals/:id/selection/secondary",
			"description": "Deactivate (committed first) then enrich",
			"parameters":  map[string]any{"photo_ids": "number[] (optional)"},
		},
		{
			"method":      "PUT",
			"path":        "/api/v1/journals/:id/photos/:photo_id/questionnaire",
			"description": "Store how a photo felt",
			"parameters": map[string]any{
				"how":      "string (optional) - up to 4000 characters",
				"emotions": "number[] (optional) - codes 1..8",
			},
		},
		{"method": "POST", "path": "/api/v1/journals/:id/drafts", "description": "Generate drafts for active photos"},
		{
			"method":      "PUT",
			"path":        "/api/v1/journals/:id/photos/:photo_id/final-text",
			"description": "Correct the printed text of a photo",
			"parameters":  map[string]any{"text": "string (required)"},
		},
		{"method": "POST", "path": "/api/v1/journals/:id/export", "description": "Render the PDF and return a 1 hour download link"},
		{"method": "GET", "path": "/api/v1/journals/:id/export/url", "description": "Fresh download link for the last export"},
		{"method": "GET", "path": "/api/v1/journals/:id/export/sheet", "description": "XLSX summary of the journal"},
	}
}
