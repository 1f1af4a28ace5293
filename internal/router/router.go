package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medagenda/clinic-api/internal/handler"
	authHandler "github.com/medagenda/clinic-api/internal/handler/auth"
	"github.com/medagenda/clinic-api/internal/middleware"
	"github.com/medagenda/clinic-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	authH        *authHandler.Handler
	clinicH      Handler
	doctorH      Handler
	patientH     Handler
	appointmentH Handler
	h            *handler.Handler
	metrics      *metrics.Metrics
}

type Config struct {
	RateLimit      middleware.RateLimiterConfig
	CORS           middleware.CORSConfig
	RequestTimeout time.Duration
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authHandler.Handler,
	clinicH Handler,
	doctorH Handler,
	patientH Handler,
	appointmentH Handler,
	h *handler.Handler,
	m *metrics.Metrics,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         auth,
		authH:        authH,
		clinicH:      clinicH,
		doctorH:      doctorH,
		patientH:     patientH,
		appointmentH: appointmentH,
		h:            h,
		metrics:      m,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.Timeout(config.RequestTimeout),
		middleware.CORS(config.CORS),
	)

	rateLimiter := middleware.NewRateLimiter(config.RateLimit)
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)

	// Public routes
	r.authH.RegisterRoutes(api)

	// Protected routes: every handler below receives a resolved AuthContext
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.authH.RegisterProtectedRoutes(protected)
	r.clinicH.RegisterRoutes(protected)
	r.doctorH.RegisterRoutes(protected)
	r.patientH.RegisterRoutes(protected)
	r.appointmentH.RegisterRoutes(protected)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		if c.Writer.Status() >= 400 {
			r.metrics.ErrorTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		}
	}
}
