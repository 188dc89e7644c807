// api/router.go
package api

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nlortiz02/DataRush/api/handlers"
	"github.com/nlortiz02/DataRush/api/middleware"
	"github.com/nlortiz02/DataRush/config"
)

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(db *sql.DB, cfg *config.Config) *gin.Engine {
	router := gin.Default() // Includes Logger and Recovery

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	tableHandler := handlers.NewTableHandler(db, cfg)
	templateHandler := handlers.NewTemplateHandler(db, cfg)

	// --- Public Routes ---
	router.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	router.POST("/login", middleware.RateLimitMiddleware(loginLimiter), authHandler.Login)
	router.POST("/verify-token", authHandler.VerifyToken)

	// --- Console Routes ---
	// The session check is client-side by default; REQUIRE_AUTH puts the
	// Bearer-token middleware in front of the whole table surface.
	consoleRoutes := router.Group("/")
	if cfg.RequireAuth {
		consoleRoutes.Use(middleware.AuthMiddleware(cfg))
	}
	{
		consoleRoutes.POST("/create-table", tableHandler.CreateTable)
		consoleRoutes.GET("/list-tables", tableHandler.ListTables)
		consoleRoutes.POST("/delete-table", tableHandler.DeleteTable)
		consoleRoutes.POST("/truncate-table", tableHandler.TruncateTable)

		consoleRoutes.GET("/download-template", templateHandler.DownloadTemplate)
		consoleRoutes.POST("/upload-excel", templateHandler.UploadExcel)
	}

	return router
}
