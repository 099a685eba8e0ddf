package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"docboard/config"
	"docboard/internal/api/handler"
	"docboard/internal/api/middleware"
	"docboard/internal/model"
	"docboard/pkg/jwt"
)

// Infra optional shared backends; nil members disable the feature or fall back locally.
type Infra struct {
	DB          *gorm.DB
	Blacklist   middleware.Blacklist
	RateCounter middleware.WindowCounter
	Pinger      func(ctx context.Context) error // redis health, nil when Redis is off
}

// Setup builds the Gin engine.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, infra Infra, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK
		if infra.DB != nil {
			if sqlDB, err := infra.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				status["status"], status["database"] = "degraded", "unreachable"
				code = http.StatusServiceUnavailable
			}
		}
		if infra.Pinger != nil {
			status["redis"] = "ok"
			if err := infra.Pinger(c.Request.Context()); err != nil {
				status["redis"] = "unreachable"
			}
		}
		c.JSON(code, status)
	})

	authLimit := middleware.RateLimit(infra.RateCounter, cfg.RateLimit.Limit, cfg.RateLimit.Window, logger)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// public auth
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authLimit, h.Auth.Register)
			auth.POST("/login", authLimit, h.Auth.Login)
			auth.POST("/refresh", authLimit, h.Auth.RefreshToken)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, infra.Blacklist, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// users (admin)
			users := authorized.Group("/users", middleware.RoleAuth(model.RoleAdmin))
			{
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
				users.DELETE("/:id", h.User.DeleteUser)
			}

			// doctors; :id accepts "me"
			doctors := authorized.Group("/doctors")
			{
				writers := middleware.RoleAuth(model.RoleDoctor, model.RoleAdmin)

				doctors.GET("", h.Doctor.ListDoctors)
				doctors.GET("/:id", h.Doctor.GetDoctor)
				doctors.PUT("/:id", writers, h.Doctor.UpdateDoctor)

				doctors.GET("/:id/slots", h.Schedule.GetSlots)
				doctors.GET("/:id/schedule", h.Schedule.GetSchedule)
				doctors.PUT("/:id/schedule", writers, h.Schedule.ReplaceSchedule)
				doctors.POST("/:id/schedule/import", writers, h.Schedule.ImportICS)
				doctors.GET("/:id/special-dates", h.Schedule.ListSpecialDates)
				doctors.POST("/:id/special-dates", writers, h.Schedule.UpsertSpecialDate)
				doctors.DELETE("/:id/special-dates", writers, h.Schedule.DeleteSpecialDate)
			}

			// patients
			patients := authorized.Group("/patients")
			{
				patients.GET("/me", middleware.RoleAuth(model.RolePatient), h.Patient.GetMine)
				patients.PUT("/me", middleware.RoleAuth(model.RolePatient), h.Patient.UpdateMine)
				patients.GET("/:id", middleware.RoleAuth(model.RoleDoctor, model.RoleAdmin), h.Patient.GetPatient)
			}

			// appointments
			appointments := authorized.Group("/appointments")
			{
				appointments.POST("", middleware.RoleAuth(model.RolePatient), h.Appointment.Book)
				appointments.GET("", h.Appointment.List)
				appointments.GET("/export", middleware.RoleAuth(model.RoleDoctor, model.RoleAdmin), h.Export.ExportAppointments)
				appointments.GET("/calendar.ics", h.Export.CalendarFeed)
				appointments.GET("/:id", h.Appointment.Get)
				appointments.PUT("/:id/status", middleware.RoleAuth(model.RoleDoctor, model.RoleAdmin), h.Appointment.UpdateStatus)
				appointments.POST("/:id/cancel", h.Appointment.Cancel)
			}

			// medical records
			records := authorized.Group("/medical-records")
			{
				records.GET("", h.MedicalRecord.List)
				records.POST("", middleware.RoleAuth(model.RoleDoctor), h.MedicalRecord.Create)
				records.GET("/:id", h.MedicalRecord.Get)
				records.PUT("/:id", middleware.RoleAuth(model.RoleDoctor), h.MedicalRecord.Update)
				records.DELETE("/:id", middleware.RoleAuth(model.RoleDoctor), h.MedicalRecord.Delete)
			}

			// notifications
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}
		}
	}

	return r
}
