package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"workshop-tracker/backend/config"
	"workshop-tracker/backend/internal/api/handler"
	"workshop-tracker/backend/internal/api/middleware"
	"workshop-tracker/backend/internal/model"
	"workshop-tracker/backend/pkg/jwt"
	"workshop-tracker/backend/pkg/redis"
	"workshop-tracker/backend/pkg/validate"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if err := validate.Register(); err != nil {
		logger.Fatal("注册自定义校验规则失败", zap.Error(err))
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	const (
		tech  = model.RoleTechnician
		sup   = model.RoleSupervisor
		ws    = model.RoleWorkstation
		admin = model.RoleSuperAdmin
	)
	managers := middleware.RoleAuth(sup, admin)
	superAdmin := middleware.RoleAuth(admin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, time.Minute), h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 人员
			people := authorized.Group("/people", managers)
			{
				people.GET("", h.Person.ListPeople)
				people.GET("/:code", h.Person.GetPerson)
				people.GET("/:code/supervisor", h.Person.GetSupervisor)
			}

			// 考勤台账
			attendance := authorized.Group("/attendance")
			{
				attendance.POST("/punch-in", middleware.RoleAuth(tech, sup), h.Attendance.PunchIn)
				attendance.POST("/punch-out", middleware.RoleAuth(tech, sup), h.Attendance.PunchOut)
				attendance.GET("/today", h.Attendance.Today)
				attendance.GET("", managers, h.Attendance.List)
				attendance.PUT("/:code/:date/holiday", managers, h.Attendance.MarkHoliday)
				attendance.DELETE("/:code/:date/holiday", managers, h.Attendance.ClearHoliday)
				attendance.PUT("/:code/:date/past", managers, h.Attendance.RecordPast)
			}

			// 补录考勤开关
			authorized.GET("/system/past-attendance", h.AttendanceConfig.Get)
			authorized.PUT("/system/past-attendance", superAdmin, h.AttendanceConfig.Update)

			// 服务台数
			metrics := authorized.Group("/metrics")
			{
				submit := middleware.RoleAuth(ws, sup, admin)
				metrics.POST("/workstation", submit, h.Metrics.SubmitWorkstation)
				metrics.POST("/advisor", submit, h.Metrics.SubmitAdvisor)
				metrics.POST("/advisors", submit, h.Metrics.SubmitAdvisors)
				metrics.GET("/workstation/dashboard", middleware.RoleAuth(ws), h.Metrics.Dashboard)
				metrics.GET("/advisors/entry", middleware.RoleAuth(ws), h.Metrics.AdvisorEntry)
			}

			// 报表
			reports := authorized.Group("/reports", managers)
			{
				reports.GET("/attendance", h.Report.Attendance)
				reports.GET("/service/workstation", h.Report.WorkstationService)
				reports.GET("/service/advisor", h.Report.AdvisorService)
			}

			// 导出
			export := authorized.Group("/export")
			{
				export.GET("/attendance-summary", managers, h.Export.AttendanceSummary)
				export.GET("/service-summary", managers, h.Export.ServiceSummary)
				export.GET("/people", managers, h.Export.People)
				export.GET("/attendance", managers, h.Export.Attendance)
				export.GET("/photos", superAdmin, h.Export.Photos)
			}

			// 导入（覆盖式）
			imports := authorized.Group("/import", superAdmin)
			{
				imports.POST("/people", h.Import.People)
				imports.POST("/attendance", h.Import.Attendance)
			}
		}
	}

	return r
}
