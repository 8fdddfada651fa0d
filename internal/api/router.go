package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bambinounos/eia/internal/api/handlers"
	"github.com/bambinounos/eia/internal/api/middleware"
	"github.com/bambinounos/eia/internal/config"
	"github.com/bambinounos/eia/internal/services"
)

// SetupRouter initializes and returns the Gin router with all routes
// configured. The scanner is shared with the scheduler so manual runs and
// scheduled runs contend on the same per-account locks.
func SetupRouter(cfg *config.Config, scanner *services.Scanner, opportunityService *services.OpportunityService, logService *services.LogService) (*gin.Engine, error) {
	router := gin.Default()

	origins := strings.Split(cfg.Server.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-API-Key"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	opportunityHandler := handlers.NewOpportunityHandler(opportunityService, logService)
	scanHandler := handlers.NewScanHandler(scanner, logService)
	logsHandler := handlers.NewLogsHandler(logService)

	// Health check endpoint (no auth required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Bienvenido al Agente IA de detección de oportunidades"})
	})

	v1 := router.Group("/api/v1")

	// The API key guard is optional: a deployment bound to localhost can
	// turn it off in the config
	if cfg.Server.APIKeyEnabled {
		apiKeyManager, err := middleware.NewAPIKeyManager(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		v1.Use(middleware.APIKeyMiddleware(apiKeyManager))
	}

	opportunities := v1.Group("/opportunities")
	{
		opportunities.GET("", opportunityHandler.ListOpportunities)
		opportunities.GET("/:id", opportunityHandler.GetOpportunity)
		opportunities.PATCH("/:id/status", opportunityHandler.UpdateOpportunityStatus)
	}

	tasks := v1.Group("/tasks")
	{
		tasks.POST("/scan", scanHandler.TriggerScan)
		tasks.GET("/scan/status/:task_id", scanHandler.GetScanStatus)
	}

	v1.GET("/logs", logsHandler.ListLogs)

	return router, nil
}
