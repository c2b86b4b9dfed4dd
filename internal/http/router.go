package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/trailhead-backend/internal/http/admin"
	httpH "github.com/yungbote/trailhead-backend/internal/http/handlers"
	httpMW "github.com/yungbote/trailhead-backend/internal/http/middleware"
	"github.com/yungbote/trailhead-backend/internal/observability"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/services"
)

const checkInRoute = "POST /api/check-ins"

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	CORSOrigins    []string
	MaxBodyBytes   int64
	TracingEnabled bool

	// CheckInMaxBodyBytes caps POST /api/check-ins, which carries media. Zero means
	// services.MaxCheckInBodyBytes.
	CheckInMaxBodyBytes int64

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler    *httpH.HealthHandler
	AuthHandler      *httpH.AuthHandler
	UserHandler      *httpH.UserHandler
	CatalogHandler   *httpH.CatalogHandler
	ItineraryHandler *httpH.ItineraryHandler
	CheckInHandler   *httpH.CheckInHandler
	RecordHandler    *httpH.RecordHandler
	FavoriteHandler  *httpH.FavoriteHandler
	RealtimeHandler  *httpH.RealtimeHandler

	AdminHandler *admin.Handler
}

func newEngine(cfg RouterConfig, serviceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(serviceName))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	if cfg.MaxBodyBytes > 0 {
		checkInLimit := cfg.CheckInMaxBodyBytes
		if checkInLimit <= 0 {
			checkInLimit = services.MaxCheckInBodyBytes
		}
		r.Use(httpMW.LimitBodyPerRoute(cfg.MaxBodyBytes, map[string]int64{checkInRoute: checkInLimit}))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	return r
}

// NewRouter builds the user-facing API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := newEngine(cfg, "trailhead-api")

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/password/question", cfg.AuthHandler.PasswordQuestion)
			api.POST("/password/verify", cfg.AuthHandler.PasswordVerify)
			api.POST("/password/reset", cfg.AuthHandler.PasswordReset)
		}

		// Catalog (public)
		if cfg.CatalogHandler != nil {
			api.GET("/cities", cfg.CatalogHandler.ListCities)
			api.GET("/cities/:id", cfg.CatalogHandler.GetCity)
			api.GET("/cities/:id/routes", cfg.CatalogHandler.ListCityRoutes)
			api.GET("/routes/:id", cfg.CatalogHandler.GetRoute)
			api.GET("/tags", cfg.CatalogHandler.ListTags)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/refresh", cfg.AuthHandler.Refresh)
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/events", cfg.RealtimeHandler.Events)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PUT("/me/profile", cfg.UserHandler.UpdateProfile)
			protected.PUT("/me/security", cfg.UserHandler.UpdateSecurity)
			protected.PUT("/me/avatar", cfg.UserHandler.UploadAvatar)
			protected.GET("/me/stats", cfg.UserHandler.Stats)
		}

		// Itineraries
		if cfg.ItineraryHandler != nil {
			protected.GET("/itineraries", cfg.ItineraryHandler.List)
			protected.POST("/itineraries", cfg.ItineraryHandler.Create)
			protected.DELETE("/itineraries/:id", cfg.ItineraryHandler.Delete)
		}

		// Check-ins + records
		if cfg.CheckInHandler != nil {
			protected.POST("/check-ins", cfg.CheckInHandler.CheckIn)
		}
		if cfg.RecordHandler != nil {
			protected.GET("/records", cfg.RecordHandler.List)
			protected.GET("/records/:id", cfg.RecordHandler.Get)
			protected.DELETE("/records/:id", cfg.RecordHandler.Delete)
		}

		// Favorites
		if cfg.FavoriteHandler != nil {
			protected.GET("/favorites", cfg.FavoriteHandler.List)
			protected.POST("/favorites", cfg.FavoriteHandler.Add)
			protected.DELETE("/favorites/:routeId", cfg.FavoriteHandler.Remove)
		}
	}

	return r
}

// NewAdminRouter builds the management API served by the admin proxy.
func NewAdminRouter(cfg RouterConfig) *gin.Engine {
	r := newEngine(cfg, "trailhead-admin")
	h := cfg.AdminHandler
	if h == nil {
		return r
	}

	api := r.Group("/api")
	api.POST("/auth/check-email", h.CheckEmail)

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAdmin())
	}
	{
		protected.GET("/users", h.ListUsers)
		protected.POST("/users", h.CreateUser)
		protected.PUT("/users/:id", h.UpdateUser)
		protected.DELETE("/users/:id", h.DeleteUser)

		protected.GET("/routes", h.ListRoutes)
		protected.POST("/routes", h.CreateRoute)
		protected.PUT("/routes/:id", h.UpdateRoute)
		protected.DELETE("/routes/:id", h.DeleteRoute)

		protected.GET("/cities", h.ListCities)
		protected.POST("/cities", h.CreateCity)
		protected.PUT("/cities/:id", h.UpdateCity)
		protected.DELETE("/cities/:id", h.DeleteCity)

		protected.GET("/tags", h.ListTags)
		protected.GET("/tags/all", h.AllTags)
		protected.POST("/tags", h.CreateTag)
		protected.PUT("/tags/:id", h.UpdateTag)
		protected.DELETE("/tags/:id", h.DeleteTag)
	}

	return r
}
