package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/internal/handler"
	internalmiddleware "github.com/noah-isme/unitime-api/internal/middleware"
	"github.com/noah-isme/unitime-api/pkg/config"
)

type routeHandlers struct {
	schedule   *handler.ScheduleHandler
	groups     *handler.GroupHandler
	semesters  *handler.SemesterHandler
	catalog    *handler.CatalogHandler
	exceptions *handler.ExceptionHandler
	metrics    *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h routeHandlers, tokens internalmiddleware.TokenValidator, logr *zap.Logger) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.metrics.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(tokens))

	writers := internalmiddleware.RequireRoles(internalmiddleware.TimetableWriters...)
	write := func(action string, fn gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{writers, internalmiddleware.Audit(logr, action), fn}
	}

	api.GET("/metrics/summary", h.metrics.Summary)

	schedule := api.Group("/schedule")
	schedule.POST("/create_slot", write("create_slot", h.schedule.CreateSlot)...)
	schedule.POST("/update_room", write("update_room", h.schedule.UpdateRoom)...)
	schedule.POST("/delete_slot", write("delete_slot", h.schedule.DeleteSlot)...)
	schedule.POST("/check_conflicts", h.schedule.CheckConflicts)
	schedule.GET("/occupancy", h.schedule.Occupancy)
	schedule.GET("/slots/:id/exceptions", h.exceptions.List)
	schedule.POST("/slots/:id/exceptions", write("create_exception", h.exceptions.Create)...)
	schedule.DELETE("/exceptions/:id", write("delete_exception", h.exceptions.Delete)...)

	groups := api.Group("/groups")
	groups.GET("/:id/slots", h.groups.Slots)
	groups.GET("/:id/weekly-needs", h.groups.WeeklyNeeds)

	semesters := api.Group("/semesters")
	semesters.GET("", h.semesters.List)
	semesters.GET("/:id", h.semesters.Get)
	semesters.POST("", write("create_semester", h.semesters.Create)...)
	semesters.POST("/:id/activate", write("activate_semester", h.semesters.Activate)...)
	semesters.DELETE("/:id", write("delete_semester", h.semesters.Delete)...)

	api.GET("/subjects/:id", h.catalog.Subject)
	api.GET("/time-slots", h.catalog.TimeSlots)
	api.POST("/time-slots", write("create_time_slot", h.catalog.CreateTimeSlot)...)
	api.GET("/classrooms", h.catalog.Classrooms)
	api.POST("/classrooms", write("create_classroom", h.catalog.CreateClassroom)...)
}
