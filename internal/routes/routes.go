package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/access"
	"github.com/zaqqye/toolcrib/internal/config"
	"github.com/zaqqye/toolcrib/internal/controllers"
	"github.com/zaqqye/toolcrib/internal/metrics"
	"github.com/zaqqye/toolcrib/internal/middleware"
	"github.com/zaqqye/toolcrib/internal/ws"
)

func ttl(raw string, unit, fallback time.Duration) time.Duration {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * unit
}

func Register(r *gin.Engine, db *gorm.DB, cfg *config.Config, hubs *ws.Hubs) {
	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	images := controllers.NewImageCache(cfg.BarcodeCacheTTL)
	authCtrl := &controllers.AuthController{
		DB:            db,
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshJWTSecret,
		AccessTTL:     ttl(cfg.AccessTokenTTLMinutes, time.Minute, 15*time.Minute),
		RefreshTTL:    ttl(cfg.RefreshTokenTTLDays, 24*time.Hour, 30*24*time.Hour),
	}
	adminCtrl := &controllers.AdminController{DB: db}
	cfgCtrl := &controllers.ConfigController{}
	toolCtrl := controllers.NewToolController(db, hubs, images)
	checkoutCtrl := controllers.NewCheckoutController(db, hubs)
	taskCtrl := controllers.NewTaskController(db, images)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Public
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/login", authCtrl.Login)
		auth.POST("/refresh", authCtrl.Refresh)
	}
	r.GET("/api/v1/config/public", cfgCtrl.Public)

	// Protected
	authMW := middleware.AuthMiddleware(db, middleware.AuthConfig{JWTSecret: cfg.JWTSecret})
	api := r.Group("/api/v1", authMW)
	{
		api.GET("/auth/me", authCtrl.Me)
		api.POST("/auth/logout", authCtrl.Logout)

		tools := api.Group("/tools")
		{
			tools.GET("", toolCtrl.List)
			tools.GET("/export.xlsx", toolCtrl.Export)
			tools.GET("/codes/preview", toolCtrl.PreviewCodes)
			tools.POST("", toolCtrl.Create)
			tools.GET("/:id", toolCtrl.Get)
			tools.PUT("/:id", toolCtrl.Update)
			tools.DELETE("/:id", toolCtrl.Delete)
			tools.GET("/:id/access", toolCtrl.Access)
			tools.GET("/:id/barcode.png", toolCtrl.Barcode)
			tools.POST("/:id/transition", middleware.Require(access.CanSupervise), toolCtrl.Transition)
		}

		api.POST("/checkouts", checkoutCtrl.Checkout)
		api.POST("/checkins", checkoutCtrl.Checkin)
		api.GET("/assignments", checkoutCtrl.ListAssignments)

		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskCtrl.List)
			tasks.POST("", middleware.Require(access.CanSupervise), taskCtrl.Create)
			tasks.GET("/:id", taskCtrl.Get)
			tasks.GET("/:id/barcode.png", taskCtrl.Barcode)
		}

		// Live feeds
		api.GET("/ws/tools", ws.ToolFeedHandler(hubs))
		api.GET("/ws/me", ws.UserFeedHandler(hubs))

		// Admin-only
		admin := api.Group("/admin", middleware.Require(access.CanManageUsers))
		{
			admin.GET("/users", adminCtrl.ListUsers)
			admin.POST("/users", adminCtrl.CreateUser)
			admin.POST("/users/import", adminCtrl.ImportUsers)
			admin.GET("/users/:user_id", adminCtrl.GetUser)
			admin.PUT("/users/:user_id", adminCtrl.UpdateUser)
			admin.DELETE("/users/:user_id", adminCtrl.DeleteUser)
		}
	}
}
