package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/harulab/tcm-api/internal/handler"
	"github.com/harulab/tcm-api/internal/middleware"
	"github.com/harulab/tcm-api/internal/repository"
	"github.com/harulab/tcm-api/internal/service"
	"github.com/harulab/tcm-api/pkg/cache"
	"github.com/harulab/tcm-api/pkg/config"
	"github.com/harulab/tcm-api/pkg/database"
	"github.com/harulab/tcm-api/pkg/logger"
	corsmiddleware "github.com/harulab/tcm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/harulab/tcm-api/pkg/middleware/requestid"
)

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	courseRepo := repository.NewCourseRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	historyRepo := repository.NewHolidayHistoryRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)

	calendarSvc := service.NewHolidayCalendarService(holidayRepo, historyRepo, logr, cfg.Scheduler.HolidayCacheTTL)
	generatorSvc := service.NewSessionGeneratorService(roomRepo, teacherRepo, logr, cfg.Scheduler.SafetyHorizonYears)
	rescheduleSvc := service.NewRescheduleService(courseRepo, sessionRepo, generatorSvc, calendarSvc, db, cacheSvc, metricsSvc, logr, cfg.Scheduler.RescheduleGranularity)
	dashboardSvc := service.NewDashboardService(courseRepo, sessionRepo, calendarSvc, cacheSvc, logr, service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL})

	validate := validator.New()

	holidayHandler := handler.NewHolidayHandler(calendarSvc, rescheduleSvc, validate)
	courseHandler := handler.NewCourseHandler(rescheduleSvc)
	sessionHandler := handler.NewSessionHandler(sessionRepo)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.POST("/holidays", holidayHandler.Create)
		api.DELETE("/holidays/:id", holidayHandler.Delete)
		api.GET("/holidays", holidayHandler.List)
		api.POST("/courses/:id/schedule", courseHandler.Schedule)
		api.GET("/courses/:id/sessions", sessionHandler.ListByCourse)
		if cfg.Dashboard.Enabled {
			api.GET("/dashboard/summary", dashboardHandler.Summary)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
