package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/passpilot-api/internal/middleware"
	"github.com/noah-isme/passpilot-api/internal/service"
	"github.com/noah-isme/passpilot-api/pkg/config"
	"github.com/noah-isme/passpilot-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/passpilot-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/passpilot-api/pkg/middleware/requestid"
	"github.com/noah-isme/passpilot-api/pkg/session"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Auth       *AuthHandler
	Profile    *ProfileHandler
	Roster     *RosterHandler
	MyClass    *MyClassHandler
	Passes     *PassHandler
	Reports    *ReportHandler
	Admin      *AdminHandler
	SuperAdmin *SuperAdminHandler
	Kiosk      *KioskHandler
	Health     *HealthHandler
}

// RouterConfig carries the cross-cutting dependencies of the router.
type RouterConfig struct {
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Sessions       *session.Codec
	Cookies        CookieConfig
	KioskVerifier  middleware.KioskVerifier
	Limiter        middleware.Limiter
	RateLimit      config.RateLimitConfig
	AllowedOrigins []string
	EnableDocs     bool
}

// NewRouter builds the gin engine with every route of the API.
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", h.Health.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limit := func(max int) gin.HandlerFunc {
		return middleware.RateLimit(cfg.Limiter, cfg.Metrics, max, cfg.RateLimit.Window)
	}
	userSession := middleware.Session(cfg.Sessions, cfg.Cookies.SessionName)

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/login", limit(cfg.RateLimit.LoginMax), h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)
	auth.POST("/activate", limit(cfg.RateLimit.LoginMax), h.Auth.Activate)
	auth.GET("/me", userSession, h.Auth.Me)

	api.POST("/sa/bootstrap", limit(cfg.RateLimit.LoginMax), h.Auth.Bootstrap)

	tenant := api.Group("", userSession, middleware.Tenant())
	admin := middleware.RequireAdmin()

	tenant.GET("/me", h.Profile.Get)
	tenant.PATCH("/me", h.Profile.Update)
	tenant.POST("/me/password", h.Profile.ChangePassword)

	tenant.GET("/grades", h.Roster.ListGrades)
	tenant.POST("/grades", admin, h.Roster.CreateGrade)
	tenant.PATCH("/grades/:id", admin, h.Roster.UpdateGrade)
	tenant.DELETE("/grades/:id", admin, h.Roster.DeleteGrade)

	tenant.GET("/students", h.Roster.ListStudents)
	tenant.POST("/students", h.Roster.CreateStudent)
	tenant.POST("/students/bulk", h.Roster.BulkCreateStudents)
	tenant.PATCH("/students/:id", h.Roster.UpdateStudent)
	tenant.DELETE("/students/:id", admin, h.Roster.DeleteStudent)

	tenant.GET("/roster", h.Roster.Roster)
	tenant.PUT("/roster/selection", h.Roster.SetSelection)
	tenant.POST("/roster/toggle", h.Roster.Toggle)

	tenant.GET("/myclass", h.MyClass.Board)
	tenant.POST("/myclass/switch", h.MyClass.Switch)

	tenant.POST("/passes", h.Passes.Create)
	tenant.GET("/passes", h.Passes.List)
	tenant.GET("/passes/:id", h.Passes.Get)
	tenant.PATCH("/passes/:id/return", h.Passes.Return)

	tenant.GET("/reports/summary", h.Reports.Summary)
	tenant.GET("/reports/export.csv", h.Reports.ExportCSV)
	tenant.GET("/reports/export.pdf", h.Reports.ExportPDF)

	adm := tenant.Group("/admin", admin)
	adm.GET("/users", h.Admin.ListUsers)
	adm.POST("/users", h.Admin.CreateUser)
	adm.POST("/users/invite", h.Admin.Invite)
	adm.PATCH("/users/:id/active", h.Admin.SetActive)
	adm.POST("/users/:id/promote", h.Admin.Promote)
	adm.POST("/users/:id/demote", h.Admin.Demote)
	adm.POST("/users/:id/reset-password", h.Admin.ResetPassword)
	adm.GET("/invites", h.Admin.PendingInvites)
	adm.GET("/school", h.Admin.School)
	adm.PATCH("/school", h.Admin.RenameSchool)
	adm.GET("/overview", h.Admin.Overview)
	adm.GET("/audits", h.Admin.Audits)
	adm.GET("/kiosks", h.Admin.Kiosks)
	adm.POST("/kiosks", h.Admin.CreateKiosk)
	adm.PATCH("/kiosks/:id", h.Admin.UpdateKiosk)

	sa := api.Group("/sa", userSession, middleware.RequireSuperAdmin())
	sa.GET("/schools", h.SuperAdmin.ListSchools)
	sa.POST("/schools", h.SuperAdmin.CreateSchool)
	sa.PATCH("/schools/:id", h.SuperAdmin.UpdateSchool)
	sa.DELETE("/schools/:id", h.SuperAdmin.DeleteSchool)
	sa.GET("/users", h.SuperAdmin.ListUsers)
	sa.POST("/users", h.SuperAdmin.CreateUser)
	sa.POST("/users/:id/promote", h.SuperAdmin.Promote)
	sa.POST("/users/:id/demote", h.SuperAdmin.Demote)
	sa.PATCH("/users/:id/active", h.SuperAdmin.SetActive)
	sa.GET("/audits", h.SuperAdmin.Audits)
	sa.GET("/system", h.SuperAdmin.System)

	kiosk := r.Group("/kiosk")
	kiosk.POST("/login", limit(cfg.RateLimit.KioskLoginMax), h.Kiosk.Login)
	kiosk.POST("/logout", h.Kiosk.Logout)

	device := kiosk.Group("", middleware.Kiosk(cfg.Sessions, cfg.Cookies.KioskName, cfg.KioskVerifier), middleware.Tenant())
	device.GET("/me", h.Kiosk.Me)
	device.GET("/students", h.Kiosk.Students)
	device.GET("/passes/active", h.Kiosk.ActivePasses)
	device.POST("/passes", limit(cfg.RateLimit.KioskPassMax), h.Kiosk.CreatePass)
	device.PATCH("/passes/:id/return", limit(cfg.RateLimit.KioskPassMax), h.Kiosk.ReturnPass)

	return r
}
