package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/slotbook-api/internal/handler/auth"
	"github.com/jwalitptl/slotbook-api/internal/handler/doctor"
	"github.com/jwalitptl/slotbook-api/internal/handler/health"
	"github.com/jwalitptl/slotbook-api/internal/handler/patient"
	"github.com/jwalitptl/slotbook-api/internal/handler/slot"
	"github.com/jwalitptl/slotbook-api/internal/middleware"
	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/pkg/metrics"
)

type Handlers struct {
	Auth    *auth.Handler
	Doctor  *doctor.Handler
	Patient *patient.Handler
	Slot    *slot.Handler
	Health  *health.Handler
}

type RouterConfig struct {
	Mode           string
	RateLimit      rate.Limit
	RateBurst      int
	RequestTimeout time.Duration
	MaxUploadBytes int64
	CORSConfig     middleware.CORSConfig
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	metrics  *metrics.Metrics
	config   RouterConfig
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, m *metrics.Metrics, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.Timeout(config.RequestTimeout),
	)

	if config.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	return &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		metrics:  m,
		config:   config,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))

	api := r.engine.Group("/api/v1")
	r.handlers.Health.RegisterRoutes(api)

	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/doctors/register", r.handlers.Doctor.Register)
	rg.POST("/doctors/login", r.handlers.Auth.LoginDoctor)
	rg.POST("/patients/register", r.handlers.Patient.Register)
	rg.POST("/patients/login", r.handlers.Auth.LoginPatient)

	rg.GET("/doctors", r.handlers.Doctor.ListDoctors)
	rg.GET("/doctors/:id", r.handlers.Doctor.GetDoctor)
	rg.GET("/doctors/:id/slots", r.handlers.Slot.ListDoctorSlots)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/logout", r.handlers.Auth.Logout)

	// Either role; ownership is checked by the service.
	rg.GET("/slots/:id", r.handlers.Slot.GetSlot)
	rg.GET("/slots/:id/prescription", r.handlers.Slot.GetPrescription)

	doctors := rg.Group("")
	doctors.Use(r.auth.RequireRole(model.RoleDoctor))
	{
		doctors.PUT("/doctors/me", r.handlers.Doctor.UpdateProfile)
		doctors.GET("/doctors/me/appointments", r.handlers.Slot.ListAppointments)
		doctors.POST("/slots", r.handlers.Slot.CreateSlot)
		doctors.DELETE("/slots/:id", r.handlers.Slot.DeleteSlot)
		doctors.PUT("/slots/:id/status", r.handlers.Slot.UpdateStatus)
		doctors.POST("/slots/:id/prescription", r.handlers.Slot.AddPrescription)
		doctors.PUT("/slots/:id/prescription", r.handlers.Slot.UpdatePrescription)
	}

	patients := rg.Group("")
	patients.Use(r.auth.RequireRole(model.RolePatient))
	{
		patients.GET("/patients/me", r.handlers.Patient.GetProfile)
		patients.PUT("/patients/me", r.handlers.Patient.UpdateProfile)
		patients.POST("/patients/me/avatar", middleware.SizeLimit(r.config.MaxUploadBytes+(1<<20)), r.handlers.Patient.UploadAvatar)
		patients.GET("/patients/me/bookings", r.handlers.Slot.ListBookings)
		patients.POST("/slots/:id/book", r.handlers.Slot.BookSlot)
		patients.POST("/slots/:id/cancel", r.handlers.Slot.CancelSlot)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
