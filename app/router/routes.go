// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/amirphl/photo-moderation/app/dto"
	"github.com/amirphl/photo-moderation/app/handlers"
	"github.com/amirphl/photo-moderation/app/middleware"
	"github.com/amirphl/photo-moderation/config"
	_ "github.com/amirphl/photo-moderation/docs"
	"github.com/amirphl/photo-moderation/utils"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cache"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

const healthPath = "/api/v1/health"

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// HealthProbe reports whether one backing dependency is reachable
type HealthProbe func(ctx context.Context) error

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Admin  handlers.AdminHandlerInterface
	Photos handlers.UserPhotoHandlerInterface
	Social handlers.SocialHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	cfg      *config.ProductionConfig
	handlers Handlers
	auth     *middleware.AuthMiddleware
	probes   map[string]HealthProbe
	logger   *zap.Logger
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, auth *middleware.AuthMiddleware, probes map[string]HealthProbe, logger *zap.Logger) Router {
	r := &FiberRouter{
		cfg:      cfg,
		handlers: h,
		auth:     auth,
		probes:   probes,
		logger:   logger,
	}

	r.app = fiber.New(fiber.Config{
		AppName:      "Photo Moderation API",
		ServerHeader: "photo-moderation",
		ErrorHandler: r.errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		TrustProxy:   len(cfg.Server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies: cfg.Server.TrustedProxies,
		},
		ProxyHeader: cfg.Server.ProxyHeader,
	})

	return r
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, middleware.MetricsHandler())
	}

	api := r.app.Group("/api/v1")
	api.Get("/health", r.healthCheck)

	if env := os.Getenv("APP_ENV"); env == "development" || env == "local" {
		api.Get("/swagger.json", r.serveSwaggerJSON)
		r.app.Get("/swagger", r.serveSwaggerUI)
		r.logger.Info("API documentation enabled")
	}

	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error:   dto.ErrorDetail{Code: "RATE_LIMIT_EXCEEDED"},
			})
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath
		},
	}))

	authenticated := r.auth.Authenticate()
	staff := r.auth.RequireRoles(utils.RoleAdmin, utils.RoleModerator)
	adminOnly := r.auth.RequireRoles(utils.RoleAdmin)

	admin := api.Group("/admin", authenticated)
	admin.Post("/approve-photo/:id", staff, r.handlers.Admin.ApprovePhoto)
	admin.Delete("/reject-photo/:id", staff, r.handlers.Admin.RejectPhoto)
	admin.Get("/photos-to-moderate", staff, r.handlers.Admin.GetPhotosForApproval)
	admin.Get("/photo-stats", staff, r.handlers.Admin.GetPhotoApprovalStats)
	admin.Get("/photo-stats/export", staff, r.handlers.Admin.ExportPhotoApprovalStats)
	admin.Get("/users-without-main-photo", staff, r.handlers.Admin.GetUsersWithoutMainPhoto)
	admin.Get("/photo-history/:id", staff, r.handlers.Admin.GetPhotoHistory)
	admin.Get("/user-activity/:userId", staff, r.handlers.Admin.GetActorActivity)
	admin.Post("/edit-roles/:username", adminOnly, r.handlers.Admin.EditRoles)
	admin.Get("/users-with-roles", adminOnly, r.handlers.Admin.GetUsersWithRoles)
	admin.Get("/tags", adminOnly, r.handlers.Admin.GetTags)
	admin.Post("/create-tag", adminOnly, r.handlers.Admin.CreateTag)
	admin.Delete("/delete-tag/:name", adminOnly, r.handlers.Admin.DeleteTag)

	users := api.Group("/users", authenticated)
	users.Post("/assign-tags/:photoId", r.handlers.Photos.AssignTags)
	users.Delete("/remove-tag/:photoId/:tagName", r.handlers.Photos.RemoveTag)
	users.Put("/set-main-photo/:photoId", r.handlers.Photos.SetMainPhoto)
	users.Delete("/delete-photo/:photoId", r.handlers.Photos.DeletePhoto)
	users.Post("/add-photo", r.handlers.Photos.AddPhoto)
	users.Get("/photos", r.handlers.Photos.GetPhotos)
	users.Get("/photo-tags/:photoId", r.handlers.Photos.GetPhotoTags)

	likes := api.Group("/likes", authenticated)
	likes.Get("/ids", r.handlers.Social.GetLikedUserIDs)
	likes.Post("/:userId", r.handlers.Social.ToggleLike)

	messages := api.Group("/messages", authenticated)
	messages.Post("/", r.handlers.Social.CreateMessage)
	messages.Get("/thread/:username", r.handlers.Social.GetMessageThread)
	messages.Delete("/:id", r.handlers.Social.DeleteMessage)

	r.app.Use(r.notFoundHandler)

	r.logger.Info("Routes configured")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateRequestID,
	}))

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			r.logger.Error("Panic while serving request",
				zap.Any("panic", e),
				zap.String("request_id", requestid.FromContext(c)),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetTag("request_id", requestid.FromContext(c))
			hub.Recover(e)
		},
	}))

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000,
		ContentSecurityPolicy:     "default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' 'unsafe-inline' https://unpkg.com; img-src 'self' data: https:; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           utils.CORSMaxAge,
	}))

	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			contentType := c.Get(fiber.HeaderContentType)
			return strings.HasPrefix(contentType, "image/")
		},
	}))

	// Only the generated API document is static enough to cache
	r.app.Use(cache.New(cache.Config{
		Next: func(c fiber.Ctx) bool {
			return c.Method() != fiber.MethodGet || c.Path() != "/api/v1/swagger.json"
		},
		Expiration:          30 * time.Minute,
		DisableCacheControl: false,
	}))

	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     `{"time":"${time}","request_id":"${respHeader:X-Request-ID}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Next: func(c fiber.Ctx) bool {
				return c.Path() == healthPath
			},
		}))
	}
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	r.logger.Info("Starting server", zap.String("address", address))
	return r.app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// healthCheck pings every registered dependency; any failure turns the answer into 503
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := make(fiber.Map, len(r.probes))
	healthy := true
	for name, probe := range r.probes {
		if err := probe(ctx); err != nil {
			healthy = false
			checks[name] = "down"
			r.logger.Warn("Health probe failed", zap.String("dependency", name), zap.Error(err))
			continue
		}
		checks[name] = "up"
	}

	status, message, state := fiber.StatusOK, "Service is healthy", "ok"
	if !healthy {
		status, message, state = fiber.StatusServiceUnavailable, "Service is degraded", "degraded"
	}

	return c.Status(status).JSON(dto.APIResponse{
		Success: healthy,
		Message: message,
		Data: fiber.Map{
			"status":    state,
			"checks":    checks,
			"timestamp": utils.UTCNowUnix(),
			"service":   "photo-moderation-api",
		},
	})
}

// serveSwaggerJSON returns the document registered by the docs package
func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error:   dto.ErrorDetail{Code: "SWAGGER_LOAD_ERROR"},
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(doc)
}

func (r *FiberRouter) serveSwaggerUI(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(swaggerUIPage)
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

// errorHandler renders errors that escaped the handlers
func (r *FiberRouter) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	errCode := "INTERNAL_ERROR"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			message = fe.Message
			errCode = strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_"))
		}
	}

	requestID := requestid.FromContext(c)
	if code >= fiber.StatusInternalServerError {
		r.logger.Error("Unhandled request error",
			zap.Int("status", code),
			zap.String("request_id", requestID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetTag("request_id", requestID)
		hub.CaptureException(err)
	}

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: errCode,
			Details: fiber.Map{
				"timestamp":  utils.UTCNowUnix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Photo Moderation API - Swagger UI</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: '/api/v1/swagger.json',
                dom_id: '#swagger-ui',
                deepLinking: true,
                validatorUrl: null
            });
        };
    </script>
</body>
</html>`
