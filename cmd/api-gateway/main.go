package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/unitime-api/api/swagger"
	"github.com/noah-isme/unitime-api/internal/handler"
	internalmiddleware "github.com/noah-isme/unitime-api/internal/middleware"
	"github.com/noah-isme/unitime-api/internal/repository"
	"github.com/noah-isme/unitime-api/internal/service"
	"github.com/noah-isme/unitime-api/pkg/cache"
	"github.com/noah-isme/unitime-api/pkg/config"
	"github.com/noah-isme/unitime-api/pkg/database"
	"github.com/noah-isme/unitime-api/pkg/jobs"
	"github.com/noah-isme/unitime-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/unitime-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/unitime-api/pkg/middleware/requestid"
)

// @title UniTime Scheduling API
// @version 1.0.0
// @description Timetable assignment and conflict resolution for university groups.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Occupancy.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}
	validate := validator.New()

	slotRepo := repository.NewScheduleSlotRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	timeSlotRepo := repository.NewTimeSlotRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	exceptionRepo := repository.NewExceptionRepository(db)

	var occupancyCache *repository.OccupancyCacheRepository
	if redisClient != nil {
		occupancyCache = repository.NewOccupancyCacheRepository(redisClient, logr)
	}
	occupancySvc := newOccupancyService(slotRepo, occupancyCache, metricsSvc, logr, cfg.Occupancy)
	if occupancyCache != nil && cfg.Occupancy.WarmWorkers > 0 {
		warmQueue := jobs.NewQueue("occupancy-warm", occupancySvc.Warm, jobs.QueueConfig{
			Workers:    cfg.Occupancy.WarmWorkers,
			MaxRetries: 2,
			Logger:     logr,
		})
		warmQueue.Start(ctx)
		defer warmQueue.Stop()
		occupancySvc.UseWarmer(warmQueue)
	}

	assignmentSvc := service.NewAssignmentService(
		slotRepo,
		groupRepo,
		subjectRepo,
		semesterRepo,
		timeSlotRepo,
		classroomRepo,
		occupancySvc,
		metricsSvc,
		db,
		validate,
		logr,
		service.AssignmentConfig{
			MaxStreamGroups:    cfg.Scheduler.MaxStreamGroups,
			DayShiftStartHour:  cfg.Scheduler.DayShiftStartHour,
			SpecialSubjectCode: cfg.Scheduler.SpecialSubjectCode,
		},
	)
	semesterSvc := service.NewSemesterService(semesterRepo, occupancySvc, validate, logr)
	exceptionSvc := service.NewExceptionService(exceptionRepo, slotRepo, classroomRepo, validate, logr)
	weeklyNeedSvc := service.NewWeeklyNeedService(groupRepo, subjectRepo, semesterRepo, slotRepo, logr)
	timetableSvc := service.NewTimetableService(slotRepo, groupRepo, semesterRepo, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, logr)
	timeGridSvc := service.NewTimeGridService(timeSlotRepo, validate, logr, cfg.Scheduler.DayShiftStartHour)
	classroomSvc := service.NewClassroomService(classroomRepo, validate, logr)
	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})
	policy := service.NewScopePolicy(groupRepo, slotRepo, semesterRepo, classroomRepo)

	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	handlers := routeHandlers{
		schedule:   handler.NewScheduleHandler(assignmentSvc, occupancySvc, policy),
		groups:     handler.NewGroupHandler(timetableSvc, weeklyNeedSvc, policy),
		semesters:  handler.NewSemesterHandler(semesterSvc, policy),
		catalog:    handler.NewCatalogHandler(subjectSvc, timeGridSvc, classroomSvc, policy),
		exceptions: handler.NewExceptionHandler(exceptionSvc, policy),
		metrics:    handler.NewMetricsHandler(metricsSvc, checks),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics"))

	registerRoutes(r, cfg, handlers, tokenSvc, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "occupancy_cache", cfg.Occupancy.CacheEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

// newOccupancyService keeps a nil cache repository out of the service's interface field.
func newOccupancyService(repo *repository.ScheduleSlotRepository, cacheRepo *repository.OccupancyCacheRepository, metrics *service.MetricsService, logr *zap.Logger, cfg config.OccupancyConfig) *service.OccupancyService {
	occupancyCfg := service.OccupancyConfig{CacheEnabled: cfg.CacheEnabled, CacheTTL: cfg.CacheTTL}
	if cacheRepo == nil {
		return service.NewOccupancyService(repo, nil, metrics, logr, occupancyCfg)
	}
	return service.NewOccupancyService(repo, cacheRepo, metrics, logr, occupancyCfg)
}
