package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking-engine/internal/audit"
	"github.com/BruksfildServices01/barber-booking-engine/internal/config"
	domain "github.com/BruksfildServices01/barber-booking-engine/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking-engine/internal/handlers"
	"github.com/BruksfildServices01/barber-booking-engine/internal/middleware"
	"github.com/BruksfildServices01/barber-booking-engine/internal/scheduling"
)

// Deps são os singletons montados no main.
type Deps struct {
	DB         *gorm.DB
	Config     *config.Config
	Log        *zap.Logger
	Repo       domain.Repository
	Scheduling *scheduling.Service
	Audit      *audit.Dispatcher
	Limiter    middleware.Limiter
}

func RegisterRoutes(r *gin.Engine, d Deps) {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.RequestLog(d.Log))
	r.Use(middleware.CORSMiddleware())

	limit := middleware.RateLimit(d.Limiter, d.Log)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(d.DB, d.Config)
	meHandler := handlers.NewMeHandler(d.DB)
	barbershopHandler := handlers.NewBarbershopHandler(d.DB, d.Audit)
	barberHandler := handlers.NewBarberHandler(d.DB, d.Audit)

	barberProductHandler := handlers.NewBarberProductHandler(d.DB, d.Audit)
	clientHandler := handlers.NewClientHandler(d.DB)
	workingHoursHandler := handlers.NewWorkingHoursHandler(d.DB, d.Audit)

	appointmentHandler := handlers.NewAppointmentHandler(d.Scheduling)
	waitlistHandler := handlers.NewWaitlistHandler(d.Scheduling)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB)

	publicHandler := handlers.NewPublicHandler(d.DB, d.Repo, d.Scheduling)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// API PÚBLICA
		// ------------------------------
		publicAPI := api.Group("/public")
		{
			publicAPI.GET("/:slug/products", publicHandler.ListProducts)
			publicAPI.GET("/:slug/barbers", publicHandler.ListBarbers)
			publicAPI.GET("/:slug/availability", publicHandler.Availability)
			publicAPI.POST("/:slug/customers", limit, authHandler.RegisterCustomer)
		}

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", limit, authHandler.Register)
		api.POST("/auth/login", limit, authHandler.Login)

		// ------------------------------
		// API PRIVADA
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(d.Config))
		{
			secured.GET("/me", meHandler.GetMe)

			// agenda: clientes, barbeiros e admin
			secured.POST("/appointments", limit, appointmentHandler.Create)
			secured.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.PATCH("/appointments/:id/confirm", appointmentHandler.Confirm)
			secured.PATCH("/appointments/:id/complete", appointmentHandler.Complete)
			secured.GET("/appointments", appointmentHandler.ListByDate)
			secured.GET("/appointments/month", appointmentHandler.ListByMonth)

			secured.POST("/waitlist", limit, waitlistHandler.Join)
			secured.GET("/waitlist", waitlistHandler.List)
			secured.DELETE("/waitlist/:id", waitlistHandler.Remove)

			// ------------------------------
			// EQUIPE
			// ------------------------------
			staff := secured.Group("/")
			staff.Use(middleware.RequireStaff())
			{
				staff.GET("/barbers", barberHandler.List)
				staff.GET("/barbers/:id/working-hours", workingHoursHandler.Get)
				staff.PUT("/barbers/:id/working-hours", workingHoursHandler.Update)

				staff.GET("/clients", clientHandler.List)
				staff.GET("/products", barberProductHandler.List)
			}

			// ------------------------------
			// ADMIN
			// ------------------------------
			admin := secured.Group("/")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/barbershop", barbershopHandler.GetMeBarbershop)
				admin.PATCH("/barbershop", barbershopHandler.UpdateMeBarbershop)

				admin.POST("/barbers", barberHandler.Create)
				admin.PATCH("/barbers/:id", barberHandler.Update)

				admin.POST("/products", barberProductHandler.Create)
				admin.PATCH("/products/:id", barberProductHandler.Update)

				admin.GET("/admin/waitlist/summary", waitlistHandler.Summary)
				admin.GET("/audit-logs", auditLogsHandler.List)
			}
		}
	}
}
