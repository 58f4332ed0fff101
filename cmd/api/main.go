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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/passpilot-api/api/swagger"
	"github.com/noah-isme/passpilot-api/internal/handler"
	"github.com/noah-isme/passpilot-api/internal/repository"
	"github.com/noah-isme/passpilot-api/internal/service"
	"github.com/noah-isme/passpilot-api/pkg/cache"
	"github.com/noah-isme/passpilot-api/pkg/config"
	"github.com/noah-isme/passpilot-api/pkg/database"
	"github.com/noah-isme/passpilot-api/pkg/jobs"
	"github.com/noah-isme/passpilot-api/pkg/logger"
	"github.com/noah-isme/passpilot-api/pkg/mailer"
	"github.com/noah-isme/passpilot-api/pkg/response"
	"github.com/noah-isme/passpilot-api/pkg/session"
)

// @title PassPilot API
// @version 1.0.0
// @description Multi-tenant hall pass service for schools
// @BasePath /
// @schemes http https

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

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	response.ExposeInternalErrors(!cfg.IsProduction())

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close() //nolint:errcheck
	}

	loc, err := time.LoadLocation(cfg.Reports.Timezone)
	if err != nil {
		logr.Warn("unknown report timezone, falling back to UTC", zap.String("timezone", cfg.Reports.Timezone), zap.Error(err))
		loc = time.UTC
	}

	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	kioskRepo := repository.NewKioskRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	passRepo := repository.NewPassRepository(db)
	reportRepo := repository.NewReportRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	metrics := service.NewMetricsService()
	validate := service.NewValidator()
	sessions := session.NewCodec(cfg.Session.Secret, cfg.Session.MaxAge)

	var cacheRepo service.CacheRepository
	var counters service.CounterStore
	pingers := map[string]handler.Pinger{"database": db}
	if rdb != nil {
		redisCache := repository.NewCacheRepository(rdb, logr)
		cacheRepo = redisCache
		counters = repository.NewRateLimitRepository(rdb)
		pingers["redis"] = handler.PingFunc(redisCache.Ping)
	}

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, rdb != nil)
	auditSvc := service.NewAuditService(auditRepo, logr)
	reportSvc := service.NewReportService(reportRepo, cacheSvc, metrics, logr, loc)
	passSvc := service.NewPassService(passRepo, userRepo, reportSvc, metrics, validate, logr, loc)
	authSvc := service.NewAuthService(userRepo, schoolRepo, inviteRepo, sessions, auditSvc, validate, logr, service.AuthConfig{
		BootstrapSecret: cfg.Bootstrap.Secret,
	})
	profileSvc := service.NewProfileService(userRepo, validate, logr)
	rosterSvc := service.NewRosterService(gradeRepo, studentRepo, reportSvc, validate, logr)
	myClassSvc := service.NewMyClassService(gradeRepo, studentRepo, userRepo, logr)
	userSvc := service.NewUserService(userRepo, inviteRepo, mailer.New(cfg.Mail, logr), auditSvc, validate, logr, service.UserServiceConfig{
		InviteTTL:     cfg.Invites.TTL,
		InviteBaseURL: cfg.Invites.BaseURL,
	})
	schoolSvc := service.NewSchoolService(schoolRepo, userRepo, reportSvc, auditSvc, validate, logr)
	kioskSvc := service.NewKioskService(kioskRepo, schoolRepo, sessions, auditSvc, validate, logr)
	limiter := service.NewRateLimiter(counters, logr)

	cookies := handler.CookieConfig{
		SessionName: cfg.Session.CookieName,
		KioskName:   cfg.Session.KioskCookieName,
		MaxAge:      cfg.Session.MaxAge,
		Domain:      cfg.Session.Domain,
		Secure:      cfg.Session.Secure,
	}

	router := handler.NewRouter(handler.RouterConfig{
		Logger:         logr,
		Metrics:        metrics,
		Sessions:       sessions,
		Cookies:        cookies,
		KioskVerifier:  kioskSvc,
		Limiter:        limiter,
		RateLimit:      cfg.RateLimit,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Docs.Enabled,
	}, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc, cookies),
		Profile:    handler.NewProfileHandler(profileSvc),
		Roster:     handler.NewRosterHandler(rosterSvc),
		MyClass:    handler.NewMyClassHandler(myClassSvc),
		Passes:     handler.NewPassHandler(passSvc),
		Reports:    handler.NewReportHandler(reportSvc),
		Admin:      handler.NewAdminHandler(userSvc, schoolSvc, auditSvc, kioskSvc),
		SuperAdmin: handler.NewSuperAdminHandler(schoolSvc, userSvc, auditSvc, metrics),
		Kiosk:      handler.NewKioskHandler(kioskSvc, passSvc, rosterSvc, cookies),
		Health:     handler.NewHealthHandler(metrics, pingers),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sweeper *jobs.Queue
	if cfg.Passes.ExpireAfter > 0 {
		sweeper = jobs.NewQueue("maintenance", service.NewMaintenanceHandler(passSvc, cfg.Passes.ExpireAfter), jobs.QueueConfig{
			Workers: 1,
			Logger:  logr,
		})
		sweeper.Start(ctx)
		if err := sweeper.Every(cfg.Passes.SweepInterval, service.JobExpirePasses, nil); err != nil {
			logr.Warn("failed to schedule pass expiry", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if sweeper != nil {
		sweeper.Stop()
	}
}
