package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"infoex/backend/config"
	"infoex/backend/internal/api/handler"
	"infoex/backend/internal/api/middleware"
	"infoex/backend/internal/model"
	"infoex/backend/pkg/jwt"
	"infoex/backend/pkg/redis"
)

// Setup builds the gin engine. rdb may be nil.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()

	// a nil *redis.Client inside an interface is not nil
	var (
		blacklist middleware.Blacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders(cfg.Auth.Cookie.Secure))
	if cfg.Server.MaxBodyBytes > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := middleware.RoleAuth(model.RoleAdmin)
	leaders := middleware.RoleAuth(model.RoleAdmin, model.RoleJR)
	active := middleware.RoleAuth(model.RoleAdmin, model.RoleJR, model.RoleBF)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(limiter, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow), h.Auth.Login)
			auth.POST("/register", h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			// pending accounts can still sign in, see themselves and change their password
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			app := authorized.Group("")
			app.Use(active)

			units := app.Group("/units")
			{
				units.GET("", h.Unit.ListUnits)
				units.GET("/:id", h.Unit.GetUnit)
				units.GET("/:id/stations", h.Unit.ListStations)
				units.POST("", admin, h.Unit.CreateUnit)
				units.PUT("/:id", admin, h.Unit.UpdateUnit)
				units.DELETE("/:id", admin, h.Unit.DeleteUnit)
			}

			stations := app.Group("/stations", admin)
			{
				stations.POST("", h.Unit.CreateStation)
				stations.PUT("/:id", h.Unit.UpdateStation)
				stations.DELETE("/:id", h.Unit.DeleteStation)
			}

			users := app.Group("/users")
			{
				users.GET("", leaders, h.User.ListUsers)
				users.GET("/:id", leaders, h.User.GetUser)
				users.POST("", admin, h.User.CreateUser)
				users.PUT("/:id", admin, h.User.UpdateUser)
				users.DELETE("/:id", admin, h.User.DeleteUser)
				users.PUT("/:id/role", admin, h.User.AssignRole)
				users.POST("/:id/reset-password", admin, h.User.ResetPassword)
				users.POST("/import", admin, h.User.ImportUsers)
			}

			attendance := app.Group("/attendance")
			{
				attendance.GET("/me", h.Attendance.ListMine)
				attendance.GET("/users/:id", leaders, h.Attendance.ListForUser)
				attendance.PUT("/entries", leaders, h.Attendance.UpsertEntry)
				attendance.DELETE("/entries/:id", leaders, h.Attendance.DeleteEntry)
				attendance.GET("/roster", leaders, h.Attendance.GetRoster)
				attendance.POST("/roster", leaders, h.Attendance.SubmitRoster)
			}

			leave := app.Group("/leave")
			{
				leave.POST("/requests", h.Leave.Request)
				leave.DELETE("/requests/:id", h.Leave.Cancel)
				leave.GET("/requests/me", h.Leave.ListMine)
				leave.GET("/calendar.ics", h.Leave.Calendar)
			}

			balances := app.Group("/balances")
			{
				balances.GET("/me", h.Balance.Mine)
				balances.GET("/users/:id", leaders, h.Balance.ForUser)
				balances.GET("/units/:id", leaders, h.Balance.ForUnit)
			}

			systemConfig := app.Group("/system-config")
			{
				systemConfig.GET("", h.SystemConfig.GetConfig)
				systemConfig.PUT("", admin, h.SystemConfig.UpdateConfig)
			}

			app.GET("/export/attendance", leaders, h.Export.ExportAttendance)

			drafts := app.Group("/drafts/roster", leaders)
			{
				drafts.GET("", h.Draft.Load)
				drafts.PUT("", h.Draft.Save)
				drafts.DELETE("", h.Draft.Clear)
			}
		}
	}

	return r
}
